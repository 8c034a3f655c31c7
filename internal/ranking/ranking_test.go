package ranking

import (
	"testing"

	"leaflog/internal/models"

	"github.com/stretchr/testify/assert"
)

func post(title string, likes int) *models.Post {
	ids := make([]string, likes)
	for i := range ids {
		ids[i] = "user" + string(rune('a'+i))
	}
	return &models.Post{BookTitle: title, BookAuthor: "Author", Likes: ids}
}

func TestTopBooksSumsLikesPerTitle(t *testing.T) {
	posts := []*models.Post{
		post("A", 3),
		post("A", 2),
		post("B", 5),
	}

	books := TopBooks(posts, 5)
	assert.Equal(t, 2, len(books))

	// A and B both total 5; A appeared first, so A ranks first.
	assert.Equal(t, "A", books[0].Title)
	assert.Equal(t, 5, books[0].TotalLikes)
	assert.Equal(t, "B", books[1].Title)
	assert.Equal(t, 5, books[1].TotalLikes)
}

func TestTopBooksStrictWinnerRanksFirst(t *testing.T) {
	posts := []*models.Post{
		post("A", 3),
		post("B", 6),
		post("A", 2),
	}

	books := TopBooks(posts, 5)
	assert.Equal(t, "B", books[0].Title)
	assert.Equal(t, 6, books[0].TotalLikes)
	assert.Equal(t, "A", books[1].Title)
}

func TestTopBooksTrimsButKeepsCase(t *testing.T) {
	posts := []*models.Post{
		post("  Dune ", 2),
		post("Dune", 1),
		post("dune", 4),
	}

	books := TopBooks(posts, 5)
	assert.Equal(t, 2, len(books))
	assert.Equal(t, "dune", books[0].Title)
	assert.Equal(t, 4, books[0].TotalLikes)
	assert.Equal(t, "Dune", books[1].Title)
	assert.Equal(t, 3, books[1].TotalLikes)
}

func TestTopBooksTruncatesToN(t *testing.T) {
	posts := []*models.Post{
		post("A", 6), post("B", 5), post("C", 4),
		post("D", 3), post("E", 2), post("F", 1),
	}

	books := TopBooks(posts, TrendingSize)
	assert.Equal(t, TrendingSize, len(books))
	assert.Equal(t, "A", books[0].Title)
	assert.Equal(t, "E", books[4].Title)
}

func TestTopBooksEmptySample(t *testing.T) {
	assert.Empty(t, TopBooks(nil, TrendingSize))
}
