package db

import (
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type seedUser struct {
	Name       string
	Email      string
	Gender     string
	LookingFor string
	Birthdate  string
	Bio        string
	Location   string
	Avatar     string
	Genres     []string
	Artists    []string
}

var seedUsers = []seedUser{
	{
		Name: "Sarah Johnson", Email: "sarah@example.com", Gender: "female", LookingFor: "men",
		Birthdate: "1997-05-15", Location: "New York, NY",
		Bio:     "Music lover and concert enthusiast. Always looking for new sounds and experiences.",
		Avatar:  "https://images.example.com/profiles/sarah.jpg",
		Genres:  []string{"Pop", "R&B", "Indie"},
		Artists: []string{"The Weeknd", "Dua Lipa", "Tame Impala", "SZA"},
	},
	{
		Name: "Michael Chen", Email: "michael@example.com", Gender: "male", LookingFor: "women",
		Birthdate: "1995-08-22", Location: "Los Angeles, CA",
		Bio:     "DJ and producer. Music is my life and passion.",
		Avatar:  "https://images.example.com/profiles/michael.jpg",
		Genres:  []string{"Electronic", "House", "Techno"},
		Artists: []string{"Daft Punk", "Disclosure", "Kaytranada", "Four Tet"},
	},
	{
		Name: "Emma Wilson", Email: "emma@example.com", Gender: "female", LookingFor: "everyone",
		Birthdate: "1999-03-10", Location: "Chicago, IL",
		Bio:     "Vinyl collector and indie rock enthusiast. Let's talk about our favorite albums!",
		Avatar:  "https://images.example.com/profiles/emma.jpg",
		Genres:  []string{"Rock", "Indie", "Alternative"},
		Artists: []string{"Arctic Monkeys", "The Strokes", "Radiohead", "Phoebe Bridgers"},
	},
	{
		Name: "James Smith", Email: "james@example.com", Gender: "male", LookingFor: "women",
		Birthdate: "1996-11-28", Location: "Atlanta, GA",
		Bio:     "Hip hop head and beatmaker. Always looking for new collaborations.",
		Avatar:  "https://images.example.com/profiles/james.jpg",
		Genres:  []string{"Hip Hop", "R&B", "Soul"},
		Artists: []string{"Kendrick Lamar", "J. Cole", "Anderson .Paak", "Tyler, The Creator"},
	},
	{
		Name: "Olivia Martinez", Email: "olivia@example.com", Gender: "female", LookingFor: "men",
		Birthdate: "1998-07-03", Location: "Boston, MA",
		Bio:     "Classical pianist with a love for jazz. Music is my language.",
		Avatar:  "https://images.example.com/profiles/olivia.jpg",
		Genres:  []string{"Classical", "Jazz", "Soul"},
		Artists: []string{"Miles Davis", "John Coltrane", "Norah Jones", "Ludovico Einaudi"},
	},
}

// SeedTestData resets the database and populates it with demo users,
// their music preferences, and a small web of likes/matches/messages.
//
// All demo accounts use the password "password123".
func SeedTestData(gdb *gorm.DB) error {
	for _, table := range []string{"messages", "like_edges", "preference_items", "profiles", "users"} {
		if err := gdb.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// Reset auto-increment sequences
	switch gdb.Dialector.Name() {
	case "mysql":
		gdb.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
		gdb.Exec("ALTER TABLE messages AUTO_INCREMENT = 1")
	case "sqlite":
		gdb.Exec("DELETE FROM sqlite_sequence WHERE name IN ('users', 'messages', 'profiles', 'preference_items')")
	}

	log.Println("Cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	ids := make([]uint64, 0, len(seedUsers))
	for _, su := range seedUsers {
		bd, _ := time.Parse("2006-01-02", su.Birthdate)
		user := User{
			Name:         su.Name,
			Email:        su.Email,
			PasswordHash: string(hash),
			Gender:       su.Gender,
			LookingFor:   su.LookingFor,
			Birthdate:    &bd,
			Active:       true,
			LastLoginAt:  time.Now(),
			Profile: &Profile{
				Bio:       su.Bio,
				Location:  su.Location,
				AvatarURL: su.Avatar,
			},
		}
		for _, g := range su.Genres {
			user.Preferences = append(user.Preferences, PreferenceItem{Kind: PreferenceGenre, Label: g})
		}
		for _, a := range su.Artists {
			user.Preferences = append(user.Preferences, PreferenceItem{Kind: PreferenceArtist, Label: a})
		}
		if err := gdb.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user %s: %w", su.Email, err)
		}
		ids = append(ids, user.ID)
	}
	log.Printf("Seeded %d users.", len(ids))

	sarah, michael, emma, james, olivia := ids[0], ids[1], ids[2], ids[3], ids[4]

	// Sarah and Michael are a match with a short conversation going;
	// James likes Sarah, Olivia likes James, Emma likes Michael, all one-way.
	edges := []LikeEdge{
		{FromID: sarah, ToID: michael, IsMatch: true},
		{FromID: michael, ToID: sarah, IsMatch: true},
		{FromID: james, ToID: sarah},
		{FromID: olivia, ToID: james},
		{FromID: emma, ToID: michael},
	}
	if err := gdb.Create(&edges).Error; err != nil {
		return fmt.Errorf("failed to seed like edges: %w", err)
	}

	messages := []Message{
		{FromID: sarah, ToID: michael, Content: "You're a match! Start the conversation by sharing your favorite song right now.", ReadFlag: true},
		{FromID: michael, ToID: sarah, Content: "Four Tet - Baby. Saw him live last month, unreal set.", ReadFlag: true},
		{FromID: sarah, ToID: michael, Content: "Tame Impala - Let It Happen. Your turn!"},
	}
	if err := gdb.Create(&messages).Error; err != nil {
		return fmt.Errorf("failed to seed messages: %w", err)
	}

	log.Println("Seeded likes, match and conversation.")
	return nil
}
