// Package postback implements the token-replay session against an ASP.NET
// WebForms endpoint.
//
// The target site renders three anti-forgery hidden fields (__VIEWSTATE,
// __VIEWSTATEGENERATOR, __EVENTVALIDATION) into every response. Each
// state-changing request must echo those fields, plus every other hidden
// field from the immediately preceding response, verbatim; the server
// rejects requests whose tokens it did not just issue. Tokens are
// effectively single-use and page-scoped, so there is no token cache: every
// request's payload is built from the response before it.
//
// Design decision: payload construction is a free function over a parsed
// page (BuildPayload) rather than a method that mutates session state. The
// Session only owns the HTTP client (cookie jar, timeout, User-Agent); what
// to post next is always derived from a page the caller holds. That keeps
// the replay contract testable without a network: feed BuildPayload a
// document, inspect the values.
package postback
