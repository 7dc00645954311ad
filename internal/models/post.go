package models

import "time"

type Post struct {
	ID         string    `json:"post_id"`
	UserID     string    `json:"user_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	ImageURL   *string   `json:"image_url"`
	MealID     *string   `json:"meal_id"`
	Likes      []string  `json:"likes"`
	Comments   []Comment `json:"comments"`
	CreatedAt  time.Time `json:"created_at"`
}

type Comment struct {
	ID         string    `json:"comment_id"`
	PostID     string    `json:"-"`
	UserID     string    `json:"user_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
