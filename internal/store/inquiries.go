package store

import (
	"context"

	"github.com/navikt/inquiry-migrator/internal/domain"
)

const inquiryColumns = `henvendelse_id, behandlingsid, behandlingskjedeid, type, tema, aktor,
	status, opprettetdato, innsendtdato, sistendretdato, behandlingsresultat,
	journalfortsaksid, journalforttema, journalpostid, batch_status, arkivpostid,
	kontorsperre, oppgaveidgsak, henvendelseidgsak, eksternaktor, tilknyttetenhet,
	ertilknyttetansatt, brukersenhet, korrelasjonsid, oversendtdokmot, behandlingstema`

// Inquiries returns the inquiry rows for the given ids, chunked per round
// trip. An empty input returns an empty slice without touching the database.
func (s *Store) Inquiries(ctx context.Context, ids []int64) ([]domain.Inquiry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []domain.Inquiry
	for _, chunk := range chunkInt64(ids, MaxChunkSize) {
		rows, err := s.primary.Query(ctx,
			`SELECT `+inquiryColumns+` FROM henvendelse WHERE henvendelse_id = ANY($1)`, chunk)
		if err != nil {
			return nil, queryError("select henvendelse", err)
		}
		for rows.Next() {
			var q domain.Inquiry
			if err := rows.Scan(
				&q.ID, &q.CaseID, &q.CaseChainID, &q.Type, &q.Theme, &q.AktorID,
				&q.Status, &q.Created, &q.Submitted, &q.LastChanged, &q.FreeText,
				&q.JournaledCaseID, &q.JournaledTheme, &q.JournalPostID, &q.BatchStatus, &q.ArchivePostingID,
				&q.OfficeLockUnit, &q.TaskIDGsak, &q.InquiryIDGsak, &q.ExternalActor, &q.AttachedUnit,
				&q.LinkedToEmployee, &q.UserUnit, &q.CorrelationID, &q.SentToDokmot, &q.SubTheme,
			); err != nil {
				rows.Close()
				return nil, queryError("scan henvendelse", err)
			}
			out = append(out, q)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, queryError("iterate henvendelse", err)
		}
	}
	return out, nil
}

// InquiryIDsForAktor returns the completed, migratable inquiry ids owned by
// one aktor. Used by the force-sync administrative operation.
func (s *Store) InquiryIDsForAktor(ctx context.Context, aktorID string) ([]int64, error) {
	rows, err := s.primary.Query(ctx,
		`SELECT DISTINCT henvendelse_id FROM henvendelse
		 WHERE aktor = $1 AND type = ANY($2) AND status = $3
		 ORDER BY henvendelse_id`,
		aktorID, inquiryTypeStrings(), domain.StatusCompleted)
	if err != nil {
		return nil, queryError("select henvendelse by aktor", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, queryError("scan henvendelse_id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("iterate henvendelse ids", err)
	}
	return ids, nil
}

// EachInquiryID streams every migratable inquiry id to fn. The scan stops
// with fn's error when fn fails.
func (s *Store) EachInquiryID(ctx context.Context, fn func(id int64) error) error {
	rows, err := s.primary.Query(ctx,
		`SELECT henvendelse_id FROM henvendelse WHERE type = ANY($1) ORDER BY henvendelse_id`,
		inquiryTypeStrings())
	if err != nil {
		return queryError("select all henvendelse ids", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return queryError("scan henvendelse_id", err)
		}
		if err := fn(id); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return queryError("iterate all henvendelse ids", err)
	}
	return nil
}

func inquiryTypeStrings() []string {
	out := make([]string, len(domain.InquiryTypes))
	for i, t := range domain.InquiryTypes {
		out[i] = string(t)
	}
	return out
}
