package boardsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/gymops-erp/gymops/internal/boardsync/monday"
)

// BoardClient is the board API surface the reconciler depends on.
type BoardClient interface {
	Validate(ctx context.Context) bool
	CreateItem(ctx context.Context, boardID, name string, columnValues map[string]string) (string, error)
	UpdateItem(ctx context.Context, boardID, itemID string, columnValues map[string]string) error
	ListItems(ctx context.Context, boardID string) ([]monday.Item, error)
}

// Report summarizes one sync pass.
type Report struct {
	Entity  string   `json:"entity"`
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Pulled  int      `json:"pulled"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// Service reconciles local records with their board items.
type Service struct {
	repo   Repository
	client BoardClient
	boards map[string]string
	run    *Run
	logger *slog.Logger
	sf     singleflight.Group
}

// NewService constructs a Service. boards maps entity type to board id;
// entities without a board are skipped.
func NewService(repo Repository, client BoardClient, boards map[string]string, logger *slog.Logger) *Service {
	return &Service{repo: repo, client: client, boards: boards, run: &Run{}, logger: logger}
}

// Run exposes the sync guard for status endpoints.
func (s *Service) Run() *Run {
	return s.run
}

// SyncToBoard pushes pending and errored records of one entity to the
// board. Rejected with ErrSyncInProgress while another run is active.
func (s *Service) SyncToBoard(ctx context.Context, entity string) (Report, error) {
	if !s.run.TryStart("push:" + entity) {
		return Report{}, ErrSyncInProgress
	}
	defer s.run.Finish()
	return s.pushEntity(ctx, entity)
}

// SyncFromBoard pulls the board's items into local records.
func (s *Service) SyncFromBoard(ctx context.Context, entity string) (Report, error) {
	if !s.run.TryStart("pull:" + entity) {
		return Report{}, ErrSyncInProgress
	}
	defer s.run.Finish()
	return s.pullEntity(ctx, entity)
}

// BidirectionalSync pushes then pulls one entity under a single guard
// acquisition.
func (s *Service) BidirectionalSync(ctx context.Context, entity string) (Report, error) {
	if !s.run.TryStart("bidirectional:" + entity) {
		return Report{}, ErrSyncInProgress
	}
	defer s.run.Finish()
	return s.syncEntity(ctx, entity)
}

// FullSync runs a bidirectional pass over every configured entity.
func (s *Service) FullSync(ctx context.Context) (map[string]Report, error) {
	if !s.run.TryStart("full") {
		return nil, ErrSyncInProgress
	}
	defer s.run.Finish()

	reports := make(map[string]Report, len(s.boards))
	for _, entity := range Entities() {
		if _, configured := s.boards[entity]; !configured {
			continue
		}
		report, err := s.syncEntity(ctx, entity)
		if err != nil {
			return reports, err
		}
		reports[entity] = report
	}
	return reports, nil
}

func (s *Service) syncEntity(ctx context.Context, entity string) (Report, error) {
	report, err := s.pushEntity(ctx, entity)
	if err != nil {
		return report, err
	}
	pull, err := s.pullEntity(ctx, entity)
	if err != nil {
		return report, err
	}
	report.Pulled = pull.Pulled
	report.Failed += pull.Failed
	report.Errors = append(report.Errors, pull.Errors...)
	return report, nil
}

func (s *Service) pushEntity(ctx context.Context, entity string) (Report, error) {
	report := Report{Entity: entity}
	boardID, ok := s.boards[entity]
	if !ok {
		return report, nil
	}
	records, err := s.repo.ListPending(ctx, entity)
	if err != nil {
		return report, err
	}
	for _, record := range records {
		// One bad record must not stop the batch.
		if err := s.pushRecord(ctx, entity, boardID, record); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s %d: %v", entity, record.LocalID, err))
			if setErr := s.repo.SetError(ctx, entity, record.LocalID, err.Error()); setErr != nil {
				s.logger.Error("record sync error state", slog.Any("error", setErr))
			}
			continue
		}
		if record.MondayItemID == nil {
			report.Created++
		} else {
			report.Updated++
		}
	}
	return report, nil
}

func (s *Service) pushRecord(ctx context.Context, entity, boardID string, record Record) error {
	if record.MondayItemID == nil {
		itemID, err := s.client.CreateItem(ctx, boardID, record.Name, record.Columns)
		if err != nil {
			return err
		}
		return s.repo.SetSynced(ctx, entity, record.LocalID, itemID)
	}
	if err := s.client.UpdateItem(ctx, boardID, *record.MondayItemID, record.Columns); err != nil {
		return err
	}
	return s.repo.SetSynced(ctx, entity, record.LocalID, *record.MondayItemID)
}

func (s *Service) pullEntity(ctx context.Context, entity string) (Report, error) {
	report := Report{Entity: entity}
	boardID, ok := s.boards[entity]
	if !ok {
		return report, nil
	}
	items, err := s.client.ListItems(ctx, boardID)
	if err != nil {
		return report, err
	}
	for _, item := range items {
		if err := s.repo.UpsertFromRemote(ctx, entity, item.ID, item.Name, item.ColumnValues); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s item %s: %v", entity, item.ID, err))
			continue
		}
		report.Pulled++
	}
	return report, nil
}

// SyncOne pushes a single record synchronously. It does not take the
// run guard: create flows call it fire-and-forget and a background
// full sync must not block local writes.
func (s *Service) SyncOne(ctx context.Context, entity string, localID int64) error {
	boardID, ok := s.boards[entity]
	if !ok {
		return nil
	}
	record, err := s.repo.Get(ctx, entity, localID)
	if err != nil {
		return err
	}
	if err := s.pushRecord(ctx, entity, boardID, *record); err != nil {
		if setErr := s.repo.SetError(ctx, entity, localID, err.Error()); setErr != nil {
			s.logger.Error("record sync error state", slog.Any("error", setErr))
		}
		return err
	}
	return nil
}

// boardWebhook is the subset of the board's webhook payload we use.
type boardWebhook struct {
	Challenge string `json:"challenge"`
	Event     struct {
		BoardID   json.Number `json:"boardId"`
		PulseID   json.Number `json:"pulseId"`
		PulseName string      `json:"pulseName"`
	} `json:"event"`
}

// HandleBoardWebhook processes a board webhook. A challenge payload is
// echoed back verbatim before any other processing; otherwise the
// referenced item is pulled into the matching local record.
func (s *Service) HandleBoardWebhook(ctx context.Context, payload []byte) ([]byte, error) {
	var hook boardWebhook
	if err := json.Unmarshal(payload, &hook); err != nil {
		return nil, fmt.Errorf("decode board webhook: %w", err)
	}
	if hook.Challenge != "" {
		return json.Marshal(map[string]string{"challenge": hook.Challenge})
	}

	entity := s.entityForBoard(hook.Event.BoardID.String())
	if entity == "" {
		s.logger.Warn("board webhook for unknown board", slog.String("board_id", hook.Event.BoardID.String()))
		return nil, nil
	}
	itemID := hook.Event.PulseID.String()
	if itemID == "" || itemID == "0" {
		return nil, nil
	}
	record, err := s.repo.FindByItemID(ctx, entity, itemID)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return nil, err
	}
	columns := map[string]string{}
	if record != nil {
		columns = record.Columns
	}
	return nil, s.repo.UpsertFromRemote(ctx, entity, itemID, hook.Event.PulseName, columns)
}

func (s *Service) entityForBoard(boardID string) string {
	for entity, id := range s.boards {
		if id == boardID {
			return entity
		}
	}
	return ""
}

// ValidateConnection probes the board API. It reports a boolean and
// never an error so health checks stay simple.
func (s *Service) ValidateConnection(ctx context.Context) bool {
	return s.client.Validate(ctx)
}

// Stats returns per-entity sync counts. Concurrent callers share one
// underlying read.
func (s *Service) Stats(ctx context.Context) (map[string]Counts, error) {
	result, err, _ := s.sf.Do("stats", func() (any, error) {
		stats := make(map[string]Counts, len(s.boards))
		for entity := range s.boards {
			counts, err := s.repo.Counts(ctx, entity)
			if err != nil {
				return nil, err
			}
			stats[entity] = counts
		}
		return stats, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]Counts), nil
}
