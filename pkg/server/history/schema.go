package history

// Schema creates the price history table.
const Schema = `
CREATE TABLE IF NOT EXISTS prices (
	id TEXT PRIMARY KEY,
	price REAL NOT NULL,
	source TEXT NOT NULL,
	recorded_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_prices_recorded_at ON prices(recorded_at);
`
