// Package brochure resolves a boat name from free text and renders the
// boat's brochure record as a sectioned PDF.
package brochure

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/theboatbrokers/brokerchat/internal/llm"
)

var (
	// ErrNotFound marks a missing boat or brochure record. Dispatch fails
	// loudly on it; it is never swallowed into a generic reply.
	ErrNotFound = errors.New("brochure: not found")
	// ErrNameExtraction means no boat name could be read out of the
	// user's request.
	ErrNameExtraction = errors.New("brochure: could not extract boat name")
)

const namePromptTemplate = `You have been given a user input, your job is to detect the name of the boat from this input
and return only its name, nothing else.

For example:

input: 'generate me a brochure for alpha'
boat name: alpha

input: 'generate a brochure for senorita'
boat name: senorita

input: 'brochure for manaas'
boat name: manaas

input: 'for clarita generate brochures'
boat name: clarita

user input:
%s
`

// ExtractBoatName asks the oracle to pull the boat name out of the user
// turn. The name is lower-cased to match how the admin panel stores it.
func ExtractBoatName(ctx context.Context, oracle llm.Client, userText string) (string, error) {
	reply, err := oracle.Generate(ctx, fmt.Sprintf(namePromptTemplate, userText))
	if err != nil {
		return "", err
	}
	name := strings.ToLower(strings.TrimSpace(reply))
	if name == "" {
		return "", ErrNameExtraction
	}
	return name, nil
}

// Record is a brochure row plus the id of the seller lead it belongs to.
type Record struct {
	LeadID any
	Fields map[string]any
}

// Lookup resolves a boat name to its lead and brochure rows. Either miss
// is an ErrNotFound naming what was absent.
func (l *Lookuper) Lookup(ctx context.Context, name string) (*Record, error) {
	lead, found, err := l.Store.QueryRow(ctx,
		"SELECT id FROM leads WHERE seller_boat_name = ?", name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: there is no boat named %q", ErrNotFound, name)
	}

	fields, found, err := l.Store.QueryRow(ctx,
		"SELECT * FROM brochures WHERE name = ?", name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: brochure data for %q is missing, please fill it from the admin panel", ErrNotFound, name)
	}

	return &Record{LeadID: lead["id"], Fields: fields}, nil
}

// Querier is the single-row lookup capability the brochure queries need.
type Querier interface {
	QueryRow(ctx context.Context, stmt string, args ...any) (map[string]any, bool, error)
}

// Lookuper binds the lookup queries to a store.
type Lookuper struct {
	Store Querier
}

// DownloadLink builds the admin-panel download URL for a lead's brochure.
func DownloadLink(base string, leadID any) string {
	return fmt.Sprintf("%s/admin/download/brochure/%v", strings.TrimRight(base, "/"), leadID)
}
