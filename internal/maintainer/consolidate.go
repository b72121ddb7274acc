package maintainer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joeunion/pidog/internal/logging"
	"github.com/joeunion/pidog/internal/store"
)

// consolidationReply is the reasoner's structured response to a
// consolidation prompt (spec §4.9 step 2).
type consolidationReply struct {
	DeleteIDs []int64                `json:"delete_ids"`
	Updates   []consolidationUpdate  `json:"updates"`
	Merged    *consolidationMerge    `json:"merged"`
}

type consolidationUpdate struct {
	ID         int64    `json:"id"`
	Content    *string  `json:"content"`
	Importance *float64 `json:"importance"`
}

type consolidationMerge struct {
	Content    string  `json:"content"`
	Importance float64 `json:"importance"`
	SourceIDs  []int64 `json:"source_ids"`
}

const consolidationSystemPrompt = `You consolidate a small robot dog's long-term memories. ` +
	`You will be given a numbered batch of memories about the same subject. Reply with a single ` +
	`JSON object: {"delete_ids": [int], "updates": [{"id": int, "content": string?, "importance": number?}], ` +
	`"merged": {"content": string, "importance": number, "source_ids": [int]}?}. ` +
	`Only reference ids that appear in the batch. Omit "merged" unless multiple memories are true duplicates.`

// consolidate implements the consolidation phase: memories are grouped by
// subject, and every group of size >= 2 is sent to the reasoner for
// deletion/update/merge proposals, validated strictly against the ids that
// were actually sent (spec §4.9 step 2).
func (m *Maintainer) consolidate(ctx context.Context) int {
	if m.reasoner == nil {
		return 0
	}

	grouped, err := m.store.BySubjectGrouped()
	if err != nil {
		logging.Get(logging.CategoryMaintainer).Error("consolidate: group failed: %v", err)
		return 0
	}

	count := 0
	first := true
	for subject, memories := range grouped {
		if len(memories) < 2 {
			continue
		}
		if ctx.Err() != nil {
			return count
		}
		if m.isBusy() {
			logging.Get(logging.CategoryMaintainer).Info("consolidate: brain became busy, stopping")
			return count
		}

		if !first {
			time.Sleep(consolidationThrottle)
		}
		first = false

		batch := memories
		if len(batch) > consolidationBatchSize {
			batch = batch[:consolidationBatchSize]
		}

		n, err := m.consolidateSubject(ctx, subject, batch)
		if err != nil {
			logging.Get(logging.CategoryMaintainer).Warn("consolidate: subject %q skipped: %v", subject, err)
			continue
		}
		count += n
	}
	return count
}

func (m *Maintainer) consolidateSubject(ctx context.Context, subject string, batch []store.Memory) (int, error) {
	validIDs := make(map[int64]store.Memory, len(batch))
	for _, mem := range batch {
		validIDs[mem.ID] = mem
	}

	prompt := buildConsolidationPrompt(subject, batch)
	text, err := m.reasoner.Think(ctx, consolidationSystemPrompt, prompt)
	if err != nil {
		return 0, fmt.Errorf("reasoner: %w", err)
	}

	var reply consolidationReply
	if err := json.Unmarshal([]byte(extractJSONObject(text)), &reply); err != nil {
		return 0, fmt.Errorf("parse reply: %w", err)
	}

	deleteSet := make(map[int64]bool, len(reply.DeleteIDs))
	var deleteIDs []int64
	for _, id := range reply.DeleteIDs {
		if _, ok := validIDs[id]; !ok {
			continue
		}
		if deleteSet[id] {
			continue
		}
		deleteSet[id] = true
		deleteIDs = append(deleteIDs, id)
	}

	var updates []store.ImportanceUpdate
	changed := 0
	for _, u := range reply.Updates {
		if _, ok := validIDs[u.ID]; !ok {
			continue
		}
		if deleteSet[u.ID] {
			continue
		}
		if u.Content != nil {
			if err := m.store.UpdateContent(u.ID, *u.Content); err == nil {
				changed++
			}
		}
		if u.Importance != nil {
			updates = append(updates, store.ImportanceUpdate{ID: u.ID, Importance: *u.Importance})
		}
	}
	if len(updates) > 0 {
		if err := m.store.BulkUpdateImportance(updates); err == nil {
			changed += len(updates)
		}
	}

	if reply.Merged != nil {
		var sourceIDs []int64
		var category store.Category
		for i, id := range reply.Merged.SourceIDs {
			mem, ok := validIDs[id]
			if !ok {
				continue
			}
			if i == 0 || category == "" {
				category = mem.Category
			}
			sourceIDs = append(sourceIDs, id)
		}
		if len(sourceIDs) > 0 {
			if _, err := m.store.Remember(category, subject, reply.Merged.Content, reply.Merged.Importance); err == nil {
				if err := m.store.BulkDelete(sourceIDs); err == nil {
					changed += len(sourceIDs)
				}
			}
		}
	}

	if len(deleteIDs) > 0 {
		if err := m.store.BulkDelete(deleteIDs); err == nil {
			changed += len(deleteIDs)
		}
	}

	return changed, nil
}

func buildConsolidationPrompt(subject string, batch []store.Memory) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "subject: %s\n", subject)
	for _, mem := range batch {
		fmt.Fprintf(&sb, "- id=%d importance=%.2f access_count=%d content=%q\n",
			mem.ID, mem.Importance, mem.AccessCount, mem.Content)
	}
	return sb.String()
}

// extractJSONObject trims any reasoner chatter surrounding the first
// top-level JSON object in text, so a reasoner reply that isn't pure JSON
// (a stray preamble line, markdown fencing) still parses.
func extractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start == -1 || end == -1 || end < start {
		return "{}"
	}
	return text[start : end+1]
}
