package bingo

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// CodeNew is the reserved match-code request meaning "create a fresh match
// with a generated code".
const CodeNew = "new"

const codeLength = 5

// Registry is the process-wide map of live matches. Its lock is independent
// of any match's lock: it never calls into a match while holding its own
// lock beyond reading visibility and joinability for listing, and matches
// deregister through Remove only after releasing their own lock.
type Registry struct {
	clock  clockwork.Clock
	logger *slog.Logger

	mu      sync.Mutex
	matches map[string]*Match
	retired map[string]struct{}
}

func NewRegistry(clock clockwork.Clock, logger *slog.Logger) *Registry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		clock:   clock,
		logger:  logger,
		matches: make(map[string]*Match),
		retired: make(map[string]struct{}),
	}
}

// CreateOrGet resolves a match-code request. CodeNew creates a match under a
// fresh generated code; any other code returns the existing match or creates
// one under that exact code. Two callers racing on the same code always get
// the same match.
func (r *Registry) CreateOrGet(code string, visibility Visibility, cfg MatchConfig) (string, *Match) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if code != CodeNew {
		code = strings.ToUpper(strings.TrimSpace(code))
		if m, ok := r.matches[code]; ok {
			return code, m
		}
		// A retired code is never handed to a different match; fall back
		// to a generated one.
		if _, was := r.retired[code]; was {
			code = r.newCodeLocked()
		}
	} else {
		code = r.newCodeLocked()
	}

	m := NewMatch(code, visibility, cfg, r.clock, r.logger, r.Remove)
	r.matches[code] = m
	ActiveMatches.Set(float64(len(r.matches)))
	r.logger.Info("match created", "match", code, "public", visibility == Public)
	return code, m
}

// Get returns the match for code, if registered.
func (r *Registry) Get(code string) (*Match, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[strings.ToUpper(strings.TrimSpace(code))]
	return m, ok
}

// Remove drops the mapping if present. Idempotent; a code is never handed
// back to a different match once removed.
func (r *Registry) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[code]; !ok {
		return
	}
	delete(r.matches, code)
	r.retired[code] = struct{}{}
	ActiveMatches.Set(float64(len(r.matches)))
	r.logger.Info("match removed", "match", code)
}

// ListPublic snapshots the codes of public matches that still admit players.
func (r *Registry) ListPublic() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	codes := make([]string, 0, len(r.matches))
	for code, m := range r.matches {
		if m.Visibility() == Public && m.Joinable() {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}

// newCodeLocked derives a short join code from a UUID, retrying on the
// unlikely collision with a live match.
func (r *Registry) newCodeLocked() string {
	for {
		raw := strings.ReplaceAll(uuid.New().String(), "-", "")
		code := strings.ToUpper(raw[:codeLength])
		_, live := r.matches[code]
		_, was := r.retired[code]
		if !live && !was {
			return code
		}
	}
}
