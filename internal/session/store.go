// Package session tracks per-client processing state. Attributes are stored
// as string-encoded booleans for compatibility with the upstream session
// attribute format.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/pdfchat/internal/db"
	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// State is the session record for one client.
type State struct {
	DocumentID         string `json:"document_id"`
	ClientID           string `json:"client_id"`
	ChatMode           string `json:"is_pdf_chat"`
	ProcessingComplete string `json:"processing_complete"`
}

// NewState builds the initial state for a freshly accepted document:
// chat mode on, processing incomplete.
func NewState(doc domain.Document) State {
	return State{
		DocumentID:         doc.ID,
		ClientID:           doc.ClientID,
		ChatMode:           strconv.FormatBool(doc.ChatMode),
		ProcessingComplete: "false",
	}
}

// ChatModeOn reports whether the session is in document chat mode.
func (s State) ChatModeOn() bool { return s.ChatMode == "true" }

// Complete reports whether the document finished ingestion.
func (s State) Complete() bool { return s.ProcessingComplete == "true" }

// Store persists session state on a db.KVStore backend. Only the ingestion
// pipeline writes; query handling reads.
type Store struct {
	kv db.KVStore
}

// New creates a session store.
func New(kv db.KVStore) *Store {
	return &Store{kv: kv}
}

func key(clientID string) string {
	return domain.KeyPrefix + "sessions/" + clientID
}

func docKey(documentID string) string {
	return domain.KeyPrefix + "documents/" + documentID
}

// Put writes the session state for its client. Sessions are keyed per
// client, not per document: uploading a new document replaces the client's
// current session, and status lookups for earlier documents resolve to the
// latest one. This mirrors the upstream one-conversation-per-client model.
func (s *Store) Put(ctx context.Context, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", st.ClientID, err)
	}
	if err := s.kv.Set(ctx, key(st.ClientID), data); err != nil {
		return fmt.Errorf("put session %s: %w: %w", st.ClientID, err, domain.ErrDatabaseUnavailable)
	}
	return nil
}

// Get reads the session state for a client.
func (s *Store) Get(ctx context.Context, clientID string) (State, error) {
	data, err := s.kv.Get(ctx, key(clientID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return State{}, fmt.Errorf("session %s: %w", clientID, domain.ErrNotFound)
		}
		return State{}, fmt.Errorf("get session %s: %w: %w", clientID, err, domain.ErrDatabaseUnavailable)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("unmarshal session %s: %w: %w", clientID, err, domain.ErrBadFormat)
	}
	return st, nil
}

// MarkComplete flips processing_complete to true for a client, keeping the
// rest of the state intact.
func (s *Store) MarkComplete(ctx context.Context, clientID string) error {
	st, err := s.Get(ctx, clientID)
	if err != nil {
		return err
	}
	st.ProcessingComplete = "true"
	return s.Put(ctx, st)
}

// LinkDocument records documentID -> clientID so processing status can be
// looked up by document id.
func (s *Store) LinkDocument(ctx context.Context, documentID, clientID string) error {
	if err := s.kv.Set(ctx, docKey(documentID), []byte(clientID)); err != nil {
		return fmt.Errorf("link document %s: %w: %w", documentID, err, domain.ErrDatabaseUnavailable)
	}
	return nil
}

// GetByDocument resolves a document id to its owning session.
func (s *Store) GetByDocument(ctx context.Context, documentID string) (State, error) {
	clientID, err := s.kv.Get(ctx, docKey(documentID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return State{}, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
		}
		return State{}, fmt.Errorf("resolve document %s: %w: %w", documentID, err, domain.ErrDatabaseUnavailable)
	}
	return s.Get(ctx, string(clientID))
}
