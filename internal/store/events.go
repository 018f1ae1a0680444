package store

import (
	"context"
	"sort"

	"github.com/navikt/inquiry-migrator/internal/domain"
)

const eventColumns = `id, henvendelse_id, aktor, type, dato, enhet, verdi`

// EventsByInquiry returns every change event for the given inquiries,
// grouped per inquiry and ordered by event date within each group.
func (s *Store) EventsByInquiry(ctx context.Context, ids []int64) (map[int64][]domain.ChangeEvent, error) {
	out := make(map[int64][]domain.ChangeEvent)
	if len(ids) == 0 {
		return out, nil
	}
	for _, chunk := range chunkInt64(ids, MaxChunkSize) {
		rows, err := s.primary.Query(ctx,
			`SELECT `+eventColumns+` FROM hendelse WHERE henvendelse_id = ANY($1)`, chunk)
		if err != nil {
			return nil, queryError("select hendelse", err)
		}
		for rows.Next() {
			var e domain.ChangeEvent
			if err := rows.Scan(&e.ID, &e.InquiryID, &e.Actor, &e.Type, &e.Date, &e.Unit, &e.Value); err != nil {
				rows.Close()
				return nil, queryError("scan hendelse", err)
			}
			out[e.InquiryID] = append(out[e.InquiryID], e)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, queryError("iterate hendelse", err)
		}
	}
	for _, events := range out {
		sort.SliceStable(events, func(i, j int) bool {
			switch {
			case events[i].Date == nil:
				return events[j].Date != nil
			case events[j].Date == nil:
				return false
			default:
				return events[i].Date.Before(*events[j].Date)
			}
		})
	}
	return out, nil
}

// EventsAfter returns change events with id greater than afterID, ordered by
// id, restricted to the resync event-type allow-list and to inquiries whose
// type is migratable.
func (s *Store) EventsAfter(ctx context.Context, afterID int64) ([]domain.ChangeEvent, error) {
	rows, err := s.primary.Query(ctx,
		`SELECT e.id, e.henvendelse_id, e.aktor, e.type, e.dato, e.enhet, e.verdi
		 FROM hendelse e
		 JOIN henvendelse h ON h.henvendelse_id = e.henvendelse_id
		 WHERE e.id > $1 AND e.type = ANY($2) AND h.type = ANY($3)
		 ORDER BY e.id`,
		afterID, domain.ResyncEventTypes, inquiryTypeStrings())
	if err != nil {
		return nil, queryError("select hendelse after watermark", err)
	}
	defer rows.Close()

	var out []domain.ChangeEvent
	for rows.Next() {
		var e domain.ChangeEvent
		if err := rows.Scan(&e.ID, &e.InquiryID, &e.Actor, &e.Type, &e.Date, &e.Unit, &e.Value); err != nil {
			return nil, queryError("scan hendelse", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("iterate hendelse after watermark", err)
	}
	return out, nil
}

// MergeSiblings expands merged inquiries into every inquiry id sharing the
// same case chain that has reached terminal status.
func (s *Store) MergeSiblings(ctx context.Context, inquiryIDs []int64) ([]int64, error) {
	if len(inquiryIDs) == 0 {
		return nil, nil
	}
	var out []int64
	for _, chunk := range chunkInt64(inquiryIDs, MaxChunkSize) {
		rows, err := s.primary.Query(ctx,
			`SELECT DISTINCT sibling.henvendelse_id
			 FROM henvendelse merged
			 JOIN henvendelse sibling ON sibling.behandlingskjedeid = merged.behandlingskjedeid
			 WHERE merged.henvendelse_id = ANY($1) AND sibling.status = $2`,
			chunk, domain.StatusCompleted)
		if err != nil {
			return nil, queryError("select merge siblings", err)
		}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, queryError("scan sibling id", err)
			}
			out = append(out, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, queryError("iterate merge siblings", err)
		}
	}
	return out, nil
}
