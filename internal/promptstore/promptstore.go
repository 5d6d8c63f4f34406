// Package promptstore loads and activates PromptTemplate rows, the
// versioned, at-most-one-active-per-name prompt registry (Invariant 6),
// grounded on original_source's prompt_template_service.py for the
// "get required active pair" contract and on the teacher's
// NewXService(client) + tx-scoped mutation idiom (pkg/services).
package promptstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/carlosapgomes/eda-triage/ent"
	"github.com/carlosapgomes/eda-triage/ent/prompttemplate"
	"github.com/google/uuid"
)

// ErrMissingActivePrompt is a retriable error (cause=llm1/llm2 per caller)
// raised when no active row exists for a prompt name.
var ErrMissingActivePrompt = errors.New("no active prompt template for name")

// Prompt is the content + versioning metadata of a loaded active prompt.
type Prompt struct {
	Name    string
	Version int
	Content string
}

// Pair is the system+user prompt pair a pipeline stage needs.
type Pair struct {
	System Prompt
	User   Prompt
}

// Store loads and activates prompt templates.
type Store struct {
	client *ent.Client
}

// New creates a Store bound to client.
func New(client *ent.Client) *Store {
	return &Store{client: client}
}

// RequiredActivePair loads the active system and user prompts by name,
// failing with ErrMissingActivePrompt if either is absent.
func (s *Store) RequiredActivePair(ctx context.Context, systemName, userName string) (*Pair, error) {
	sys, err := s.activePrompt(ctx, systemName)
	if err != nil {
		return nil, err
	}
	usr, err := s.activePrompt(ctx, userName)
	if err != nil {
		return nil, err
	}
	return &Pair{System: *sys, User: *usr}, nil
}

func (s *Store) activePrompt(ctx context.Context, name string) (*Prompt, error) {
	row, err := s.client.PromptTemplate.Query().
		Where(
			prompttemplate.NameEQ(prompttemplate.Name(name)),
			prompttemplate.IsActive(true),
		).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingActivePrompt, name)
		}
		return nil, fmt.Errorf("failed to load active prompt %s: %w", name, err)
	}
	return &Prompt{Name: string(row.Name), Version: row.Version, Content: row.Content}, nil
}

// Create inserts a new, inactive prompt version. Activation is a separate
// step (Activate) so that creation never disturbs Invariant 6.
func (s *Store) Create(ctx context.Context, name string, version int, content string) (*ent.PromptTemplate, error) {
	row, err := s.client.PromptTemplate.Create().
		SetID(uuid.New().String()).
		SetName(prompttemplate.Name(name)).
		SetVersion(version).
		SetContent(content).
		SetIsActive(false).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create prompt template: %w", err)
	}
	return row, nil
}

// Activate makes (name, version) the single active row for name, deactivating
// whatever was previously active, all inside one transaction so Invariant 6
// never observes two active rows for the same name.
func (s *Store) Activate(ctx context.Context, name string, version int) error {
	tx, err := s.client.Tx(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.PromptTemplate.Update().
		Where(
			prompttemplate.NameEQ(prompttemplate.Name(name)),
			prompttemplate.IsActive(true),
		).
		SetIsActive(false).
		Save(ctx); err != nil {
		return fmt.Errorf("failed to deactivate current prompt: %w", err)
	}

	n, err := tx.PromptTemplate.Update().
		Where(
			prompttemplate.NameEQ(prompttemplate.Name(name)),
			prompttemplate.VersionEQ(version),
		).
		SetIsActive(true).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("failed to activate prompt: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("prompt template %s version %d not found", name, version)
	}

	return tx.Commit()
}

// List returns every version of every prompt template, most recent first
// within each name, for the admin prompt listing endpoint.
func (s *Store) List(ctx context.Context) ([]*ent.PromptTemplate, error) {
	rows, err := s.client.PromptTemplate.Query().
		Order(ent.Asc(prompttemplate.FieldName), ent.Desc(prompttemplate.FieldVersion)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt templates: %w", err)
	}
	return rows, nil
}
