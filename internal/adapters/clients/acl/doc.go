// Package acl keeps downstream wire formats out of the domain. Adapters
// here call a clients.Client, decode the remote JSON, and hand back domain
// types and domain errors only.
//
// Two downstreams are covered:
//
//   - [QuoteSource] reads a dummyjson-style collection,
//     GET /quotes?limit=0 returning {"quotes":[{"id":1,"quote":"...","author":"..."}]}.
//     Records without text are dropped with a warning. The remote id is ignored.
//   - [Adapter] on its own backs quotectl, which talks to the quotebook API
//     and maps its error envelope straight back to the domain errors the
//     server started from.
//
// Failure mapping:
//
//	404                              domain.ErrNotFound
//	400, 422                         domain.ErrValidation
//	body code NOT_READY              domain.ErrNotReady, load state from details
//	401, 403, 429, 5xx, transport    domain.ErrUnavailable
package acl
