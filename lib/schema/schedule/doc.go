// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

// Package schedule defines the normalized data model for the schedule
// integration engine: tasks imported from external planning tools,
// per-import summaries, change deltas between successive imports, the
// version ledger records, registered schedule sources, and WBS code
// mappings awaiting curation.
//
// All parsers produce the same Task shape regardless of source format;
// the delta engine and the ledger store operate only on these types.
package schedule
