package service

import (
	"math/rand"
	"strings"
)

// Stock photo pools keyed by dish keyword. Generated recipes carry a stock
// image until the user replaces it; the pick is uniform within the matched
// pool so repeated generations do not all show the same photo.

var chickenImages = []string{
	"https://images.unsplash.com/photo-1598103442097-8b74394b95c6?w=800",
	"https://images.unsplash.com/photo-1604503468506-a8da13d82791?w=800",
	"https://images.unsplash.com/photo-1610057099431-d73a1c9d2f2f?w=800",
	"https://images.unsplash.com/photo-1588166524941-3bf61a9c41db?w=800",
}

var pastaImages = []string{
	"https://images.unsplash.com/photo-1621996346565-e3dbc646d9a9?w=800",
	"https://images.unsplash.com/photo-1551183053-bf91a1d81141?w=800",
	"https://images.unsplash.com/photo-1563379926898-05f4575a45d8?w=800",
	"https://images.unsplash.com/photo-1555949258-eb67b1ef0ceb?w=800",
}

var defaultImages = []string{
	"https://images.unsplash.com/photo-1546069901-ba9599a7e63c?w=800",
	"https://images.unsplash.com/photo-1567620905732-2d1ec7ab7445?w=800",
	"https://images.unsplash.com/photo-1540189549336-e6e99c3679fe?w=800",
	"https://images.unsplash.com/photo-1565299624946-b28f40a0ae38?w=800",
	"https://images.unsplash.com/photo-1565958011703-44f9829ba187?w=800",
}

// pickStockImage chooses a photo pool by keyword match against the recipe
// name and description, then picks uniformly within it.
func pickStockImage(name, description string) string {
	text := strings.ToLower(name + " " + description)

	pool := defaultImages
	switch {
	case strings.Contains(text, "chicken"):
		pool = chickenImages
	case strings.Contains(text, "pasta"), strings.Contains(text, "spaghetti"), strings.Contains(text, "noodle"):
		pool = pastaImages
	}

	return pool[rand.Intn(len(pool))]
}
