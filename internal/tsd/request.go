package tsd

import (
	"errors"
	"fmt"
	"strings"
)

// Operation is one of the fixed tsd invocations.
type Operation int

const (
	Install Operation = iota + 1
	Reinstall
	Update
)

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrMissingQuery     = errors.New("install requires a query")
)

func (o Operation) String() string {
	switch o {
	case Install:
		return "install"
	case Reinstall:
		return "reinstall"
	case Update:
		return "update"
	default:
		return fmt.Sprintf("operation(%d)", int(o))
	}
}

// ParseOperation maps a name such as "update" to its Operation.
func ParseOperation(name string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "install":
		return Install, nil
	case "reinstall":
		return Reinstall, nil
	case "update":
		return Update, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}
}

// Request describes a single tsd run. Query is only used by Install.
type Request struct {
	Operation Operation
	Dir       string
	Query     string
}

func NewInstall(dir, query string) Request {
	return Request{Operation: Install, Dir: dir, Query: query}
}

func NewReinstall(dir string) Request {
	return Request{Operation: Reinstall, Dir: dir}
}

func NewUpdate(dir string) Request {
	return Request{Operation: Update, Dir: dir}
}

// Validate reports whether the request can be turned into an argument vector.
func (r Request) Validate() error {
	switch r.Operation {
	case Install:
		if strings.TrimSpace(r.Query) == "" {
			return ErrMissingQuery
		}
	case Reinstall, Update:
	default:
		return fmt.Errorf("%w: %d", ErrUnknownOperation, int(r.Operation))
	}

	return nil
}

// Args returns the argument vector passed to the tsd executable.
func (r Request) Args() []string {
	switch r.Operation {
	case Install:
		return []string{"query", r.Query, "--action", "install", "--save", "--resolve"}
	case Reinstall:
		return []string{"reinstall", "--save", "--overwrite"}
	case Update:
		return []string{"update", "--save", "--overwrite"}
	default:
		return nil
	}
}
