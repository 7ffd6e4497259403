package audit

import (
	"time"

	"github.com/google/uuid"

	id "sgea/pkg/domain"
)

// Action tags an audit entry with the business action that produced it. The
// tags are stable identifiers consumed by the organizer's audit page; they
// keep the original Portuguese vocabulary of the certificate workflow.
type Action string

const (
	ActionSignup           Action = "cadastro"
	ActionLogin            Action = "login"
	ActionLoginFailed      Action = "login_falhou"
	ActionRegistration     Action = "inscricao"
	ActionCancellation     Action = "cancelamento"
	ActionPresence         Action = "presenca"
	ActionCertificate      Action = "certificado"
	ActionCertificateBatch Action = "certificados_lote"
	ActionEventCreated     Action = "evento_criado"
	ActionEventUpdated     Action = "evento_atualizado"
	ActionEventDeleted     Action = "evento_removido"
)

// Entry is an immutable audit record. ActorID is nil for anonymous or
// system-initiated actions. Entries are appended and never mutated.
type Entry struct {
	ID        uuid.UUID
	ActorID   *id.AccountID
	Actor     string // display name or username, "" for anonymous
	Action    Action
	Detail    string
	OriginIP  string
	UserAgent string // readable browser/OS summary, raw UA when unparseable
	Timestamp time.Time
}

// Filter narrows audit listings. Zero values mean "no restriction".
type Filter struct {
	// Day restricts entries to the calendar day containing it (UTC).
	Day time.Time
	// ActorContains matches a substring of the actor display name.
	ActorContains string
}
