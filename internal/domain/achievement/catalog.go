package achievement

// Catalog returns the static achievement catalog. Entries are never removed;
// adding one is a code change, which keeps criteria and award history in
// lockstep.
func Catalog() []Achievement {
	return []Achievement{
		{
			ID:          "first-steps",
			Name:        "First Steps",
			Description: "Log in to the platform for the first time",
			Category:    CategoryConsistency,
			Points:      5,
			Icon:        "footprints",
			Criteria:    Criteria{MinTotalLogins: 1},
		},
		{
			ID:          "week-streak",
			Name:        "Week One Warrior",
			Description: "Stay active seven days in a row",
			Category:    CategoryConsistency,
			Points:      25,
			Icon:        "flame",
			Criteria:    Criteria{MinLongestStreak: 7},
		},
		{
			ID:          "month-streak",
			Name:        "Habit Formed",
			Description: "Stay active thirty days in a row",
			Category:    CategoryConsistency,
			Points:      100,
			Icon:        "calendar-check",
			Criteria:    Criteria{MinLongestStreak: 30},
		},
		{
			ID:          "first-post",
			Name:        "Breaking the Ice",
			Description: "Share your first discussion post",
			Category:    CategoryParticipation,
			Points:      10,
			Icon:        "message-circle",
			Criteria:    Criteria{MinTotalPosts: 1},
		},
		{
			ID:          "conversationalist",
			Name:        "Conversationalist",
			Description: "Write ten discussion posts",
			Category:    CategoryParticipation,
			Points:      30,
			Icon:        "messages-square",
			Criteria:    Criteria{MinTotalPosts: 10},
		},
		{
			ID:          "helping-hand",
			Name:        "Helping Hand",
			Description: "Respond to twenty-five discussions",
			Category:    CategoryCommunity,
			Points:      50,
			Icon:        "handshake",
			Criteria:    Criteria{MinTotalResponses: 25},
		},
		{
			ID:          "module-one",
			Name:        "Off the Blocks",
			Description: "Complete your first module",
			Category:    CategoryProgress,
			Points:      15,
			Icon:        "rocket",
			Criteria:    Criteria{MinModulesCompleted: 1},
		},
		{
			ID:          "halfway-there",
			Name:        "Halfway There",
			Description: "Complete six modules",
			Category:    CategoryProgress,
			Points:      60,
			Icon:        "mountain",
			Criteria:    Criteria{MinModulesCompleted: 6},
		},
		{
			ID:          "regular",
			Name:        "Regular",
			Description: "Be active on twenty different days",
			Category:    CategoryConsistency,
			Points:      40,
			Icon:        "repeat",
			Criteria:    Criteria{MinActiveDays: 20},
		},
	}
}

// FromCatalog returns the catalog entry with the given ID, or
// ErrNotInCatalog.
func FromCatalog(id string) (Achievement, error) {
	for _, a := range Catalog() {
		if a.ID == id {
			return a, nil
		}
	}
	return Achievement{}, ErrNotInCatalog
}
