// Package petkit implements the PetKit cloud API client and session
// management.
//
// The vendor API is an HTTP endpoint returning JSON envelopes of the form
//
//	{"result": ..., "error": {"code": N, "msg": "..."}}
//
// Three request shapes exist: plain GET with query parameters, POST with
// query parameters (the vendor's login uses this), and POST with a
// form-encoded body. Every request carries a fixed set of identification
// headers plus the session token in X-Session.
//
// Transport failures are absorbed: Request logs the failure and returns
// an empty envelope, so one unreachable poll never propagates an error
// through the refresh pipeline. Vendor-level errors stay in the envelope
// and are inspected with EnvelopeError.
//
// Account layers credential handling on top of Client: MD5 password
// normalisation, login, persisted session reuse via SessionStore, and
// the device roster fetch with a single re-login retry when the session
// has expired server-side.
package petkit
