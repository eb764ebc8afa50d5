// Package estate keeps a persisted inventory of live real-estate listing
// links in sync with what the source sites currently show. It crawls each
// site through a bounded, retrying fetch engine, reconciles the crawl
// against the stored inventory, and feeds new links through a detail stage
// whose output is appended to a historical offers store.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, postgres/, goquery/).
package estate
