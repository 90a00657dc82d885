package clipboard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
)

var (
	ErrEmpty       = errors.New("clipboard is empty")
	ErrUnavailable = errors.New("clipboard access denied")
)

type Reader interface {
	ReadText() (string, error)
}

// System reads the clipboard of the host the server runs on.
type System struct{}

func (System) ReadText() (string, error) {
	if clipboard.Unsupported {
		return "", ErrUnavailable
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmpty
	}
	return text, nil
}

// Static serves a fixed value; handy for headless deployments and tests.
type Static struct {
	Text string
	Err  error
}

func (s Static) ReadText() (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	if strings.TrimSpace(s.Text) == "" {
		return "", ErrEmpty
	}
	return s.Text, nil
}
