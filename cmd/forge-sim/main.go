// Command forge-sim serves a synthetic forge API for local development. It
// fabricates commits, CI runs and merged pull requests on an interval so a
// local engine has something to score without a real repository.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"
)

const (
	defaultAddr     = ":9090"
	defaultInterval = 20 * time.Second
	historyLimit    = 100
)

var authors = []string{"alice", "bob", "carol", "dave", "erin"}

var messages = []string{
	"fix login redirect loop",
	"add retry to webhook delivery",
	"wip",
	"refactor session cache eviction",
	"update",
	"handle empty diff in importer",
	"stuff",
	"tighten rate limiter windows",
}

var paths = []string{
	"internal/auth/session.go",
	"internal/auth/session_test.go",
	"web/handlers.go",
	"pkg/queue/queue.go",
	"pkg/queue/queue_test.go",
	"docs/runbook.md",
}

type simCommitFile struct {
	Filename  string `json:"filename"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

type simCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	Author struct {
		Login string `json:"login"`
	} `json:"author"`
	HTMLURL string          `json:"html_url"`
	Files   []simCommitFile `json:"files"`
}

type simRun struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion"`
	HeadBranch string    `json:"head_branch"`
	UpdatedAt  time.Time `json:"updated_at"`
	HTMLURL    string    `json:"html_url"`
}

type simPull struct {
	ID       int64      `json:"id"`
	Number   int        `json:"number"`
	Title    string     `json:"title"`
	MergedAt *time.Time `json:"merged_at"`
	HTMLURL  string     `json:"html_url"`
	User     struct {
		Login string `json:"login"`
	} `json:"user"`
}

// simulator fabricates forge activity. Newest entries go to the front, the
// way the real API orders its listings.
type simulator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	commits []simCommit
	runs    []simRun
	pulls   []simPull
	nextSeq int64
}

func newSimulator(seed int64) *simulator {
	return &simulator{rng: rand.New(rand.NewSource(seed)), nextSeq: 1}
}

func (s *simulator) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.nextSeq++
	seq := s.nextSeq

	c := simCommit{
		SHA:     fmt.Sprintf("%040x", seq),
		HTMLURL: fmt.Sprintf("https://forge.local/commit/%d", seq),
	}
	c.Author.Login = authors[s.rng.Intn(len(authors))]
	c.Commit.Message = messages[s.rng.Intn(len(messages))]
	c.Commit.Author.Date = now
	for i := 0; i < 1+s.rng.Intn(3); i++ {
		c.Files = append(c.Files, simCommitFile{
			Filename:  paths[s.rng.Intn(len(paths))],
			Additions: s.rng.Intn(200),
			Deletions: s.rng.Intn(80),
		})
	}
	s.commits = prepend(s.commits, c)

	// Roughly every other tick produces a CI run; one in five pending.
	if s.rng.Intn(2) == 0 {
		run := simRun{
			ID:         seq,
			Name:       "ci",
			Status:     "completed",
			HeadBranch: "main",
			UpdatedAt:  now,
			HTMLURL:    fmt.Sprintf("https://forge.local/runs/%d", seq),
		}
		switch s.rng.Intn(5) {
		case 0:
			run.Status = "in_progress"
		case 1:
			run.Conclusion = "failure"
		default:
			run.Conclusion = "success"
		}
		s.runs = prepend(s.runs, run)
	}

	if s.rng.Intn(4) == 0 {
		merged := now
		pr := simPull{
			ID:      seq,
			Number:  int(seq),
			Title:   messages[s.rng.Intn(len(messages))],
			HTMLURL: fmt.Sprintf("https://forge.local/pulls/%d", seq),
		}
		if s.rng.Intn(4) > 0 {
			pr.MergedAt = &merged
		}
		pr.User.Login = authors[s.rng.Intn(len(authors))]
		s.pulls = prepend(s.pulls, pr)
	}
}

func prepend[T any](list []T, v T) []T {
	list = append([]T{v}, list...)
	if len(list) > historyLimit {
		list = list[:historyLimit]
	}
	return list
}

func (s *simulator) handleCommits(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Listings omit file diffs; GetCommit carries them.
	out := make([]simCommit, len(s.commits))
	for i, c := range s.commits {
		out[i] = c
		out[i].Files = nil
	}
	writeJSON(w, out)
}

func (s *simulator) handleCommit(w http.ResponseWriter, r *http.Request) {
	sha := r.URL.Path[len(r.URL.Path)-40:]
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.commits {
		if c.SHA == sha {
			writeJSON(w, c)
			return
		}
	}
	http.NotFound(w, r)
}

func (s *simulator) handleRuns(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, map[string]any{"workflow_runs": s.runs})
}

func (s *simulator) handlePulls(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.pulls)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func main() {
	var (
		addr     = flag.String("addr", defaultAddr, "Listen address")
		owner    = flag.String("owner", "devderby", "Simulated repository owner")
		repo     = flag.String("repo", "demo", "Simulated repository name")
		interval = flag.Duration("interval", defaultInterval, "Time between fabricated events")
		seed     = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	)
	flag.Parse()

	sim := newSimulator(*seed)
	sim.tick()

	go func() {
		ticker := time.NewTicker(*interval)
		defer ticker.Stop()
		for range ticker.C {
			sim.tick()
		}
	}()

	prefix := fmt.Sprintf("/repos/%s/%s", *owner, *repo)
	mux := http.NewServeMux()
	mux.HandleFunc(prefix+"/commits", sim.handleCommits)
	mux.HandleFunc(prefix+"/commits/", sim.handleCommit)
	mux.HandleFunc(prefix+"/actions/runs", sim.handleRuns)
	mux.HandleFunc(prefix+"/pulls", sim.handlePulls)

	fmt.Printf("forge-sim serving %s/%s on %s (interval %s)\n", *owner, *repo, *addr, *interval)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		os.Stderr.WriteString("forge-sim failed: " + err.Error() + "\n")
	}
}
