package database

import (
	"fmt"
	"time"

	"riff-review/internal/models"
)

// FixtureContainerID is the review whose comment list the fixtures populate.
const FixtureContainerID = "review-1"

// MockComments returns a fresh copy of the development fixture set.
func MockComments() []*models.Comment {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []*models.Comment{
		{
			ID:          "1",
			ContainerID: FixtureContainerID,
			UserID:      "user-hana",
			DisplayName: "hana",
			AvatarURL:   "/images/avatars/hana.png",
			Content:     "The bridge on track 3 is the best thing they've written.",
			Likes:       12,
			LikedBy:     append([]string{"user-minjun"}, fixtureLikers(11)...),
			CreatedAt:   base,
			UpdatedAt:   base,
		},
		{
			ID:          "2",
			ContainerID: FixtureContainerID,
			UserID:      "user-minjun",
			DisplayName: "minjun",
			AvatarURL:   "/images/avatars/minjun.png",
			Content:     "Production is a bit muddy on vinyl, streaming sounds cleaner.",
			Likes:       3,
			LikedBy:     fixtureLikers(3),
			CreatedAt:   base.Add(time.Hour),
			UpdatedAt:   base.Add(time.Hour),
		},
		{
			ID:          "3",
			ContainerID: FixtureContainerID,
			UserID:      "user-guest",
			DisplayName: "guest",
			AvatarURL:   "/images/avatars/default.png",
			Content:     "Anyone know if the deluxe edition has the live take?",
			Likes:       0,
			CreatedAt:   base.Add(2 * time.Hour),
			UpdatedAt:   base.Add(2 * time.Hour),
		},
	}
}

func fixtureLikers(n int) []string {
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		ids = append(ids, fmt.Sprintf("user-listener-%d", i))
	}
	return ids
}
