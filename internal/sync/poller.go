package sync

import (
	"context"
	"errors"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/trakker/internal/api"
	"github.com/nhle/trakker/internal/cache"
	"github.com/nhle/trakker/internal/model"
)

// SyncState represents the current state of the background refresh.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus describes the last background refresh of the watched board.
type SyncStatus struct {
	BoardID  string
	State    SyncState
	LastSync time.Time
	Error    error
}

// BoardRefreshedMsg is a tea.Msg sent when a background refresh finishes.
type BoardRefreshedMsg struct {
	BoardID string
	Board   model.FullBoard
	Error   error
	// Expired is set when the refresh failed because the session ended.
	Expired bool
}

// BoardSource loads boards through the query cache.
type BoardSource interface {
	// Get returns the cached board, refetching it once it is stale.
	Get(ctx context.Context, boardID string) (model.FullBoard, error)
	// Refresh refetches the board unconditionally.
	Refresh(ctx context.Context, boardID string) (model.FullBoard, error)
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// DefaultInterval is how often the watched board is checked for staleness.
const DefaultInterval = 60 * time.Second

// Poller keeps the open board fresh. Every tick it asks the query cache
// for the board, which refetches only once the entry is stale; Refresh
// forces a refetch.
type Poller struct {
	boards    BoardSource
	interval  time.Duration
	resultCh  chan BoardRefreshedMsg
	triggerCh chan struct{}
	stopCh    chan struct{}

	mu      gosync.Mutex
	watched string
	status  SyncStatus
	running bool
}

// New creates a Poller. A non-positive interval uses DefaultInterval.
func New(boards BoardSource, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		boards:    boards,
		interval:  interval,
		resultCh:  make(chan BoardRefreshedMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Watch selects the board to keep fresh. An empty id pauses polling.
func (p *Poller) Watch(boardID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.watched == boardID {
		return
	}
	p.watched = boardID
	p.status = SyncStatus{BoardID: boardID, State: SyncIdle}
}

// Watched returns the board being kept fresh.
func (p *Poller) Watched() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.watched
}

// Start returns a tea.Cmd that starts the polling goroutine and waits for
// its first result.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.loop()

	return p.waitForResult()
}

// Stop halts the polling goroutine.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// Refresh triggers an immediate refetch of the watched board.
func (p *Poller) Refresh() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// A refresh is already pending.
	}
}

// Status returns the state of the last refresh.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.fetch(false)
		case <-p.triggerCh:
			p.fetch(true)
		}
	}
}

// fetch refreshes the watched board and reports the outcome. Results of a
// fetch superseded by a local mutation are dropped silently.
func (p *Poller) fetch(force bool) {
	boardID := p.Watched()
	if boardID == "" {
		return
	}

	p.setStatus(boardID, SyncRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	var (
		board model.FullBoard
		err   error
	)
	if force {
		board, err = p.boards.Refresh(ctx, boardID)
	} else {
		board, err = p.boards.Get(ctx, boardID)
	}

	if errors.Is(err, cache.ErrCanceled) {
		p.setStatus(boardID, SyncIdle, nil)
		return
	}
	if err != nil {
		p.setStatus(boardID, SyncError, err)
		p.sendResult(BoardRefreshedMsg{
			BoardID: boardID,
			Error:   err,
			Expired: api.IsUnauthorized(err),
		})
		return
	}

	p.setStatus(boardID, SyncIdle, nil)
	p.sendResult(BoardRefreshedMsg{BoardID: boardID, Board: board})
}

func (p *Poller) setStatus(boardID string, state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// The user switched boards mid-fetch.
	if p.watched != boardID {
		return
	}
	p.status.BoardID = boardID
	p.status.State = state
	p.status.Error = err
	if state == SyncIdle && err == nil {
		p.status.LastSync = time.Now()
	}
}

// sendResult sends a result without blocking.
func (p *Poller) sendResult(msg BoardRefreshedMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-p.resultCh:
			return result
		case <-p.stopCh:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next refresh
// result. Call it after handling a BoardRefreshedMsg.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
