package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/navikt/inquiry-migrator/internal/domain"
)

const postingColumns = `arkivpostid, arkivertdato, mottattdato, utgaardato, temagruppe,
	arkivposttype, dokumenttype, kryssreferanseid, kanal, aktoerid, fodselsnummer,
	navident, innhold, journalfoerendeenhet, status, kategorikode, signert,
	erorganinternt, begrensetpartinnsyn, sensitiv`

// Postings returns the archive postings for the given posting ids, keyed by
// id. An empty input returns an empty map without touching the database.
func (s *Store) Postings(ctx context.Context, ids []int64) (map[int64]domain.ArchivePosting, error) {
	out := make(map[int64]domain.ArchivePosting)
	if len(ids) == 0 {
		return out, nil
	}
	for _, chunk := range chunkInt64(ids, MaxChunkSize) {
		rows, err := s.archive.Query(ctx,
			`SELECT `+postingColumns+` FROM arkivpost WHERE arkivpostid = ANY($1)`, chunk)
		if err != nil {
			return nil, queryError("select arkivpost", err)
		}
		for rows.Next() {
			var p domain.ArchivePosting
			if err := rows.Scan(
				&p.ID, &p.ArchivedDate, &p.ReceivedDate, &p.ExpiryDate, &p.TopicGroup,
				&p.PostingType, &p.DocumentType, &p.CrossRefID, &p.Channel, &p.AktorID, &p.NationalID,
				&p.CaseworkerID, &p.Content, &p.JournalingUnit, &p.Status, &p.CategoryCode, &p.Signed,
				&p.OrgInternal, &p.RestrictedView, &p.Sensitive,
			); err != nil {
				rows.Close()
				return nil, queryError("scan arkivpost", err)
			}
			out[p.ID] = p
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, queryError("iterate arkivpost", err)
		}
	}
	return out, nil
}

// Attachments returns the attachments for the given posting ids, keyed by
// posting id. At most one attachment per posting is carried by the legacy
// schema.
func (s *Store) Attachments(ctx context.Context, ids []int64) (map[int64]domain.Attachment, error) {
	out := make(map[int64]domain.Attachment)
	if len(ids) == 0 {
		return out, nil
	}
	for _, chunk := range chunkInt64(ids, MaxChunkSize) {
		rows, err := s.archive.Query(ctx,
			`SELECT arkivpostid, filnavn, filtype, variantformat, tittel, brevkode, strukturert, dokument
			 FROM vedlegg WHERE arkivpostid = ANY($1)`, chunk)
		if err != nil {
			return nil, queryError("select vedlegg", err)
		}
		for rows.Next() {
			var a domain.Attachment
			if err := rows.Scan(&a.PostingID, &a.Filename, &a.Filetype, &a.Variant,
				&a.Title, &a.LetterCode, &a.Structured, &a.Document); err != nil {
				rows.Close()
				return nil, queryError("scan vedlegg", err)
			}
			out[a.PostingID] = a
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, queryError("iterate vedlegg", err)
		}
	}
	return out, nil
}

// SubjectMapping resolves aktor ids to national identifiers from the
// secondary mapping table. Only consulted for inquiries without a posting.
func (s *Store) SubjectMapping(ctx context.Context, aktorIDs []string) (map[string]string, error) {
	out := make(map[string]string)
	if len(aktorIDs) == 0 {
		return out, nil
	}
	rows, err := s.archive.Query(ctx,
		`SELECT aktorid, fnr FROM aktor_fnr_mapping WHERE aktorid = ANY($1)`, aktorIDs)
	if err != nil {
		return nil, queryError("select aktor_fnr_mapping", err)
	}
	defer rows.Close()

	for rows.Next() {
		var aktorID, fnr string
		if err := rows.Scan(&aktorID, &fnr); err != nil {
			return nil, queryError("scan aktor_fnr_mapping", err)
		}
		out[aktorID] = fnr
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("iterate aktor_fnr_mapping", err)
	}
	return out, nil
}

// AktorForSubject resolves one national identifier to its aktor id.
func (s *Store) AktorForSubject(ctx context.Context, nationalID string) (string, error) {
	var aktorID string
	err := s.archive.QueryRow(ctx,
		`SELECT aktorid FROM aktor_fnr_mapping WHERE fnr = $1`, nationalID).Scan(&aktorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: no aktor mapping", ErrNotFound)
	}
	if err != nil {
		return "", queryError("select aktorid by fnr", err)
	}
	return aktorID, nil
}
