// Package prefs persists user preferences and learned words.
package prefs

import (
	"context"
	"errors"
)

// Preferences are the user-facing switches.
type Preferences struct {
	Enabled          bool   `json:"enabled" yaml:"enabled"`
	CheckGrammar     bool   `json:"checkGrammar" yaml:"check_grammar"`
	CheckTone        bool   `json:"checkTone" yaml:"check_tone"`
	CheckTerminology bool   `json:"checkTerminology" yaml:"check_terminology"`
	Language         string `json:"language" yaml:"language"`
}

// Default enables every checker for en-US.
func Default() Preferences {
	return Preferences{
		Enabled:          true,
		CheckGrammar:     true,
		CheckTone:        true,
		CheckTerminology: true,
		Language:         "en-US",
	}
}

// ErrEmptyWord is returned when learning a blank word.
var ErrEmptyWord = errors.New("prefs: empty word")

// Store persists preferences and the learned-word list.
type Store interface {
	Load(ctx context.Context) (Preferences, error)
	Save(ctx context.Context, p Preferences) error
	LearnWord(ctx context.Context, word string) error
	Words(ctx context.Context) ([]string, error)
}

// Learner records a word in a Store and in the in-memory Dictionary.
type Learner struct {
	Store Store
	Dict  *Dictionary
}

// LearnWord normalizes word and stores it in both places.
func (l Learner) LearnWord(ctx context.Context, word string) error {
	w := Normalize(word)
	if w == "" {
		return ErrEmptyWord
	}
	if l.Store != nil {
		if err := l.Store.LearnWord(ctx, w); err != nil {
			return err
		}
	}
	if l.Dict != nil {
		l.Dict.Add(w)
	}
	return nil
}

// LoadDictionary builds a Dictionary from the words in s.
func LoadDictionary(ctx context.Context, s Store) (*Dictionary, error) {
	words, err := s.Words(ctx)
	if err != nil {
		return nil, err
	}
	return NewDictionary(words...), nil
}
