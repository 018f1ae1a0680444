package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Runner writes a generated dataset into both legacy databases.
type Runner struct {
	primary *pgxpool.Pool
	archive *pgxpool.Pool
}

func NewRunner(ctx context.Context, cfg *Config) (*Runner, error) {
	primary, err := pgxpool.New(ctx, cfg.PrimaryURL)
	if err != nil {
		return nil, fmt.Errorf("connect primary: %w", err)
	}
	archive, err := pgxpool.New(ctx, cfg.ArchiveURL)
	if err != nil {
		primary.Close()
		return nil, fmt.Errorf("connect archive: %w", err)
	}
	return &Runner{primary: primary, archive: archive}, nil
}

func (r *Runner) Close() {
	r.primary.Close()
	r.archive.Close()
}

// Insert writes subjects and inquiries in batched statements, archive rows
// first so that attachment foreign keys resolve.
func (r *Runner) Insert(ctx context.Context, subjects []Subject, inquiries []Inquiry) error {
	mapping := &pgx.Batch{}
	for _, s := range subjects {
		mapping.Queue(
			`INSERT INTO aktor_fnr_mapping (aktorid, fnr) VALUES ($1, $2)
			 ON CONFLICT (aktorid) DO NOTHING`, s.AktorID, s.NationalID)
	}
	if err := r.send(ctx, r.archive, mapping); err != nil {
		return fmt.Errorf("insert aktor_fnr_mapping: %w", err)
	}

	archiveRows := &pgx.Batch{}
	primaryRows := &pgx.Batch{}
	for _, q := range inquiries {
		if q.Posting != nil {
			p := q.Posting
			archiveRows.Queue(
				`INSERT INTO arkivpost (arkivpostid, arkivertdato, utgaardato, temagruppe,
				    aktoerid, fodselsnummer, status)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)
				 ON CONFLICT (arkivpostid) DO NOTHING`,
				p.ID, p.ArchivedDate, p.ExpiryDate, p.TopicGroup,
				p.AktorID, p.NationalID, p.Status)
		}
		if q.Attachment != nil {
			a := q.Attachment
			archiveRows.Queue(
				`INSERT INTO vedlegg (arkivpostid, filnavn, tittel, dokument)
				 VALUES ($1, $2, $3, $4)`,
				a.PostingID, a.Filename, a.Title, a.Document)
		}

		var postingID *string
		if q.PostingID != nil {
			s := fmt.Sprintf("%d", *q.PostingID)
			postingID = &s
		}
		primaryRows.Queue(
			`INSERT INTO henvendelse (henvendelse_id, behandlingsid, behandlingskjedeid,
			    type, aktor, status, opprettetdato, behandlingsresultat, arkivpostid)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (henvendelse_id) DO NOTHING`,
			q.ID, q.CaseID, q.CaseChainID, q.Type, q.AktorID, q.Status,
			q.Created, q.FreeText, postingID)
		for _, e := range q.Events {
			primaryRows.Queue(
				`INSERT INTO hendelse (henvendelse_id, aktor, type, dato, enhet, verdi)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				e.InquiryID, e.Actor, e.Type, e.Date, e.Unit, e.Value)
		}
	}
	if err := r.send(ctx, r.archive, archiveRows); err != nil {
		return fmt.Errorf("insert archive rows: %w", err)
	}
	if err := r.send(ctx, r.primary, primaryRows); err != nil {
		return fmt.Errorf("insert primary rows: %w", err)
	}
	return nil
}

func (r *Runner) send(ctx context.Context, pool *pgxpool.Pool, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	return pool.SendBatch(ctx, batch).Close()
}
