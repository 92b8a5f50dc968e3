package ticketgen

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Generated ticket shape matching the intake schema.
type Ticket struct {
	ID            string `json:"id"`
	Category      string `json:"category"`
	Priority      int    `json:"priority"`
	Source        string `json:"source"`
	Location      string `json:"location"`
	RequiredSkill string `json:"required_skill"`
	CreatedAt     string `json:"created_at"`
}

var (
	categories = []string{"hardware", "software", "network", "access", "printer"}
	sources    = []string{"email", "portal", "phone", "chat"}
	locations  = []string{"hq", "warehouse", "remote", "branch-2"}
	skills     = []string{"windows", "linux", "networking", "sql", ""}
)

const maxPriority = 5

// randomInt returns a uniform int in [0, n) using crypto/rand.
func randomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateTickets produces n tickets with unique ids and a skewed mix of
// categories, priorities, and skill tags.
func generateTickets(n int) []Ticket {
	out := make([]Ticket, n)
	for i := range out {
		out[i] = Ticket{
			ID:            uuid.NewString(),
			Category:      categories[randomInt(len(categories))],
			Priority:      1 + randomInt(maxPriority),
			Source:        sources[randomInt(len(sources))],
			Location:      locations[randomInt(len(locations))],
			RequiredSkill: skills[randomInt(len(skills))],
			CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		}
	}
	return out
}
