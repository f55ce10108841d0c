package account

import "codeberg.org/studyai/server/internal/accounts"

// account state shown by the usage counter
type Response = accounts.Snapshot
