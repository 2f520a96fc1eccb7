// Package session orchestrates a client-side authentication session against
// a remote identity authority: it persists a single bearer credential, tracks
// the session through a four-state lifecycle (loading, unauthenticated,
// two-factor pending, authenticated), and guards navigation between public,
// auth, and protected areas of an application.
//
// Session lifecycle:
//   - Machine is a single-writer store over {User, Token, Status, IsAdmin}.
//     Every transition recomputes IsAdmin from the identity's roles; no other
//     code path may touch it. Subscribers observe each settled state.
//   - Bootstrapper runs once per load: it restores the persisted credential,
//     asks the authority who the caller is, and resolves the machine into a
//     steady state. Transient authority failures keep the credential and
//     surface a retryable error instead of logging the user out.
//   - Guard evaluates {status, route class} on every transition or path
//     change and drives the Navigator: banned accounts are pinned to the
//     suspended page, partial logins to the two-factor page, and visitors
//     bounced off protected routes have their destination remembered for one
//     redirect after sign-in.
//
// Credential handling:
//   - CredentialStore is the only writer of the persisted credential. Every
//     Set/Clear synchronously mirrors the value into the shared HTTP client's
//     default Authorization header so no request can race a credential change.
//   - InspectToken decodes a JWT payload without verifying its signature. It
//     exists solely to classify a rejected credential as two-factor pending;
//     signature verification is the authority's responsibility exclusively.
package session
