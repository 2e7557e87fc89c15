package journal

const Schema = `
CREATE TABLE IF NOT EXISTS tickers (
	ticker_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	ticker_id TEXT NOT NULL DEFAULT '',
	side TEXT NOT NULL CHECK (side IN ('buy', 'sell')),
	quantity REAL NOT NULL,
	price REAL NOT NULL,
	fee REAL NOT NULL,
	traded_at DATETIME NOT NULL,
	note TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_trades_timeline ON trades(ticker_id, traded_at, trade_id);
`
