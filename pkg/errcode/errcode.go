package errcode

import (
	"github.com/gnames/gn"
)

const (
	UnknownError gn.ErrorCode = iota

	// File system errors
	CreateDirError
	ReadFileError
	WriteFileError

	// Logging errors
	CreateLogFileError

	// Database errors
	DBConnectionError
	DBNotConnectedError
	DBTableCheckError
	DBQueryError
	DBTxError
	DBTxConflictError

	// Schema errors
	SchemaGORMConnectionError
	SchemaCreateError
	SchemaMigrateError

	// Store errors
	StoreUpsertError
	StoreNotFoundError
	StoreLinkError
	StoreIdentityCollisionError

	// Canonical index errors
	CanonResolveError
	CanonRedirectError
	CanonCycleError

	// Merge errors
	MergeEmptyGroupError
	MergeKindError
	MergeApplyError
	MergeDetectError

	// History errors
	HistoryAppendError
	HistoryReplayError
	HistoryDivergenceError

	// Connector errors
	ConnectorUnknownError
	ConnectorConfigError
	ConnectorFailureError

	// Acquire errors
	AcquireBatchError
)
