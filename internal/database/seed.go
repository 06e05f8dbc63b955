package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// roleCapabilities is the stock role → capability grant map installed at
// seed time. Capabilities derive from the registered object types'
// capability bases plus the term management pair.
var roleCapabilities = map[string][]string{
	"admin": {
		"edit_post", "read_post", "delete_post",
		"edit_posts", "edit_others_posts", "publish_posts", "read_private_posts",
		"edit_page", "read_page", "delete_page",
		"edit_pages", "edit_others_pages", "publish_pages", "read_private_pages",
		"edit_term", "delete_term",
	},
	"editor": {
		"edit_post", "read_post", "delete_post",
		"edit_posts", "publish_posts",
		"edit_page", "read_page", "delete_page",
		"edit_pages", "publish_pages",
		"edit_term", "delete_term",
	},
	"author": {
		"edit_post", "read_post",
	},
}

// Seed populates the database with initial data: the role/capability map, a
// default admin user, and the fallback category term. Safe to run more than
// once.
func Seed(db *sql.DB) error {
	if err := seedCapabilities(db); err != nil {
		return err
	}
	if err := seedAdmin(db); err != nil {
		return err
	}
	if err := seedDefaultTerm(db); err != nil {
		return err
	}
	if err := seedSamplePosts(db); err != nil {
		return err
	}
	return nil
}

func seedCapabilities(db *sql.DB) error {
	for role, caps := range roleCapabilities {
		for _, capability := range caps {
			_, err := db.Exec(`
				INSERT INTO role_capabilities (role_slug, capability)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, role, capability)
			if err != nil {
				return fmt.Errorf("seed capability %s/%s: %w", role, capability, err)
			}
		}
	}
	return nil
}

func seedAdmin(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}
	if count > 0 {
		slog.Info("users already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO users (email, password_hash, display_name, role)
		VALUES ($1, $2, $3, $4)
	`, "admin@sygacms.local", string(hash), "Admin", "admin")
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", "admin@sygacms.local",
		"password", "admin",
	)
	return nil
}

// seedSamplePosts inserts a published and a draft post so a fresh
// development database has something to list. Skipped once any post exists.
func seedSamplePosts(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM posts").Scan(&count); err != nil {
		return fmt.Errorf("seed check posts: %w", err)
	}
	if count > 0 {
		return nil
	}

	_, err := db.Exec(`
		INSERT INTO posts (post_author, post_title, post_content, post_status, post_name, post_type)
		VALUES
			(1, 'Hello World', 'Welcome to SygaCMS.', 'publish', 'hello-world', 'post'),
			(1, 'Draft ideas', 'Not ready yet.', 'draft', '', 'post')
	`)
	if err != nil {
		return fmt.Errorf("seed sample posts: %w", err)
	}

	slog.Info("database seeded with sample posts")
	return nil
}

// seedDefaultTerm installs the fallback category posts land in when no
// category is assigned.
func seedDefaultTerm(db *sql.DB) error {
	_, err := db.Exec(`
		INSERT INTO terms (name, slug, taxonomy, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slug) WHERE slug <> '' DO NOTHING
	`, "Non assignee", "non-assignee", "category", "Default category")
	if err != nil {
		return fmt.Errorf("seed default term: %w", err)
	}
	return nil
}
