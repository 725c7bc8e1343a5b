package sqlite

// crawlSchema holds everything except the bulky fetch artifacts: URL
// identity, frontier, content, redirects, link/hreflang inventories, and
// indexability verdicts.
const crawlSchema = `
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS urls (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	canonical TEXT UNIQUE NOT NULL,
	host TEXT NOT NULL,
	scheme TEXT NOT NULL,
	classification TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_urls_host ON urls(host);

CREATE TABLE IF NOT EXISTS frontier (
	url_id INTEGER PRIMARY KEY REFERENCES urls(id),
	depth INTEGER NOT NULL,
	parent_url_id INTEGER,
	status TEXT NOT NULL,
	enqueued_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_frontier_status ON frontier(status, enqueued_at);

CREATE TABLE IF NOT EXISTS meta_robots_sets (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tokens TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS content (
	url_id INTEGER PRIMARY KEY REFERENCES urls(id),
	title TEXT,
	meta_description TEXT,
	h1_count INTEGER NOT NULL DEFAULT 0,
	h2_count INTEGER NOT NULL DEFAULT 0,
	first_h1 TEXT,
	first_h2 TEXT,
	word_count INTEGER NOT NULL DEFAULT 0,
	canonical_url_id INTEGER,
	meta_robots_id INTEGER REFERENCES meta_robots_sets(id),
	internal_link_count INTEGER NOT NULL DEFAULT 0,
	external_link_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS redirects (
	source_url_id INTEGER NOT NULL,
	hop_index INTEGER NOT NULL,
	target_url_id INTEGER NOT NULL,
	status_code INTEGER NOT NULL,
	PRIMARY KEY (source_url_id, hop_index)
);

CREATE TABLE IF NOT EXISTS redirect_summary (
	source_url_id INTEGER PRIMARY KEY,
	chain_length INTEGER NOT NULL,
	final_status_code INTEGER NOT NULL,
	final_target_url_id INTEGER NOT NULL,
	loop_detected BOOLEAN NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS anchor_texts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	text TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS xpaths (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	xpath TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS hrefs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	href TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS links (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source_url_id INTEGER NOT NULL,
	target_url_id INTEGER NOT NULL,
	anchor_text_id INTEGER NOT NULL,
	xpath_id INTEGER NOT NULL,
	href_id INTEGER NOT NULL,
	rel_flags TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_links_source ON links(source_url_id);
CREATE INDEX IF NOT EXISTS idx_links_target ON links(target_url_id);

CREATE TABLE IF NOT EXISTS language_codes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	code TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS hreflang_sitemap (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url_id INTEGER NOT NULL,
	language_code_id INTEGER NOT NULL,
	href_url_id INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS hreflang_header (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url_id INTEGER NOT NULL,
	language_code_id INTEGER NOT NULL,
	href_url_id INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS hreflang_html (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url_id INTEGER NOT NULL,
	language_code_id INTEGER NOT NULL,
	href_url_id INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS indexability (
	url_id INTEGER PRIMARY KEY,
	robots_txt_allows BOOLEAN NOT NULL,
	html_meta_allows BOOLEAN NOT NULL,
	http_header_allows BOOLEAN NOT NULL,
	overall_indexable BOOLEAN NOT NULL,
	reasons_bitmap INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sitemaps_listed (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url_id INTEGER NOT NULL,
	sitemap_url_id INTEGER NOT NULL,
	discovered_at DATETIME NOT NULL,
	UNIQUE(url_id, sitemap_url_id)
);
`

// pagesSchema holds only the bulky raw fetch artifacts.
const pagesSchema = `
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pages (
	url_id INTEGER PRIMARY KEY,
	final_status_code INTEGER NOT NULL,
	fetched_at DATETIME NOT NULL,
	headers_blob BLOB NOT NULL,
	body_blob BLOB NOT NULL,
	content_type TEXT,
	encoding TEXT
);
`
