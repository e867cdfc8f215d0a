package cases

import (
	"context"
	"time"

	"guarulhosfacil/limitation"
)

// Status is the free-text lifecycle label of a case.
type Status string

const (
	StatusPending       Status = "Pendente"
	StatusVotedResolved Status = "Votado para Resolução"
)

// Categories lists the problem types a citizen can report.
var Categories = []string{
	"Buraco na via",
	"Lixo acumulado",
	"Iluminação pública apagada",
	"Sinalização danificada",
	"Queimada ou desmatamento",
	"Barulho excessivo",
	"Carro abandonado",
	"Outro",
}

const (
	// ProtocolPrefix precedes the case id in the protocol shown to the citizen.
	ProtocolPrefix = "GRL-"
	// MaxDescriptionLength bounds the free-text description.
	MaxDescriptionLength = 300
	// NearbyMinConfirmations is the confirmation count a case needs to be listed
	// in the region view.
	NearbyMinConfirmations = 2
)

// Record is a persisted case. Confirmations is always >= 1 and PhotoURL is
// set once at creation.
type Record struct {
	ID            string
	Category      string
	Description   string
	Latitude      float64
	Longitude     float64
	CreatedAt     time.Time
	Confirmations int
	Status        Status
	PhotoURL      *string
	SubmitterHash string
	Dates         limitation.Dates
}

// Protocol returns the citizen-facing protocol number of the record.
func (r Record) Protocol() string {
	return ProtocolPrefix + r.ID
}

// Fields is a partial update. Nil members are left untouched.
type Fields struct {
	Status        *Status
	Confirmations *int
}

func (f Fields) empty() bool {
	return f.Status == nil && f.Confirmations == nil
}

// Repository is the record store contract shared by every backend.
type Repository interface {
	Append(ctx context.Context, rec Record) (string, error)
	ListAll(ctx context.Context) (map[string]Record, error)
	Get(ctx context.Context, id string) (Record, error)
	UpdateFields(ctx context.Context, id string, fields Fields) error
	IncrementConfirmations(ctx context.Context, id string) (int, error)
}
