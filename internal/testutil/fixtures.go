package testutil

import "github.com/roach88/automodel/internal/schema"

// UserShape returns the User model used across tests:
//
//	name   text
//	age    integer
//	email  text
//	status text = "active"
func UserShape() *schema.Shape {
	return schema.MustShape("User",
		schema.NewField("name", schema.Text),
		schema.NewField("age", schema.Integer),
		schema.NewField("email", schema.Text),
		schema.NewField("status", schema.Text).WithDefault("active"),
	)
}

// PostShape returns the Post model used across tests:
//
//	title     text
//	content   text
//	author_id integer
//	likes     integer = 0
func PostShape() *schema.Shape {
	return schema.MustShape("Post",
		schema.NewField("title", schema.Text),
		schema.NewField("content", schema.Text),
		schema.NewField("author_id", schema.Integer),
		schema.NewField("likes", schema.Integer).WithDefault(0),
	)
}

// User returns create data for a user.
func User(name string, age int64, email string) map[string]any {
	return map[string]any{"name": name, "age": age, "email": email}
}
