// Package ranking derives the "popular books" sidebar from a bounded
// sample of recent posts. Purely computed, never persisted.
package ranking

import (
	"sort"
	"strings"

	"leaflog/internal/models"
)

// TrendingSampleSize bounds how many recent posts feed the ranking.
const TrendingSampleSize = 100

// TrendingSize is how many ranked books the sidebar shows.
const TrendingSize = 5

// TopBooks groups posts by exact trimmed title (case-sensitive, no
// further normalization: titles differing by case count as distinct
// books), sums each group's like count, and returns the top n groups.
// Ties keep the order of first appearance in the input.
func TopBooks(posts []*models.Post, n int) []models.RankedBook {
	index := make(map[string]int)
	var books []models.RankedBook

	for _, post := range posts {
		title := strings.TrimSpace(post.BookTitle)
		i, seen := index[title]
		if !seen {
			index[title] = len(books)
			books = append(books, models.RankedBook{
				Title:      title,
				Author:     post.BookAuthor,
				CoverImage: post.CoverImage,
			})
			i = index[title]
		}
		books[i].TotalLikes += len(post.Likes)
	}

	// Stable sort preserves first-appearance order among equal sums.
	sort.SliceStable(books, func(i, j int) bool {
		return books[i].TotalLikes > books[j].TotalLikes
	})

	if n > 0 && len(books) > n {
		books = books[:n]
	}
	return books
}
