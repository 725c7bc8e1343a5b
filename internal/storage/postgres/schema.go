package postgres

// schema mirrors the sqlite crawlSchema and pagesSchema row-for-row,
// collapsed into one database since pgx talks to a single DSN rather than
// a pair of files.
const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS urls (
	id BIGSERIAL PRIMARY KEY,
	canonical TEXT UNIQUE NOT NULL,
	host TEXT NOT NULL,
	scheme TEXT NOT NULL,
	classification TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_urls_host ON urls(host);

CREATE TABLE IF NOT EXISTS frontier (
	url_id BIGINT PRIMARY KEY REFERENCES urls(id),
	depth INTEGER NOT NULL,
	parent_url_id BIGINT,
	status TEXT NOT NULL,
	enqueued_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_frontier_status ON frontier(status, enqueued_at);

CREATE TABLE IF NOT EXISTS meta_robots_sets (
	id BIGSERIAL PRIMARY KEY,
	tokens TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS content (
	url_id BIGINT PRIMARY KEY REFERENCES urls(id),
	title TEXT,
	meta_description TEXT,
	h1_count INTEGER NOT NULL DEFAULT 0,
	h2_count INTEGER NOT NULL DEFAULT 0,
	first_h1 TEXT,
	first_h2 TEXT,
	word_count INTEGER NOT NULL DEFAULT 0,
	canonical_url_id BIGINT,
	meta_robots_id BIGINT REFERENCES meta_robots_sets(id),
	internal_link_count INTEGER NOT NULL DEFAULT 0,
	external_link_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS redirects (
	source_url_id BIGINT NOT NULL,
	hop_index INTEGER NOT NULL,
	target_url_id BIGINT NOT NULL,
	status_code INTEGER NOT NULL,
	PRIMARY KEY (source_url_id, hop_index)
);

CREATE TABLE IF NOT EXISTS redirect_summary (
	source_url_id BIGINT PRIMARY KEY,
	chain_length INTEGER NOT NULL,
	final_status_code INTEGER NOT NULL,
	final_target_url_id BIGINT NOT NULL,
	loop_detected BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS anchor_texts (
	id BIGSERIAL PRIMARY KEY,
	text TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS xpaths (
	id BIGSERIAL PRIMARY KEY,
	xpath TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS hrefs (
	id BIGSERIAL PRIMARY KEY,
	href TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS links (
	id BIGSERIAL PRIMARY KEY,
	source_url_id BIGINT NOT NULL,
	target_url_id BIGINT NOT NULL,
	anchor_text_id BIGINT NOT NULL,
	xpath_id BIGINT NOT NULL,
	href_id BIGINT NOT NULL,
	rel_flags TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_links_source ON links(source_url_id);
CREATE INDEX IF NOT EXISTS idx_links_target ON links(target_url_id);

CREATE TABLE IF NOT EXISTS language_codes (
	id BIGSERIAL PRIMARY KEY,
	code TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS hreflang_sitemap (
	id BIGSERIAL PRIMARY KEY,
	url_id BIGINT NOT NULL,
	language_code_id BIGINT NOT NULL,
	href_url_id BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS hreflang_header (
	id BIGSERIAL PRIMARY KEY,
	url_id BIGINT NOT NULL,
	language_code_id BIGINT NOT NULL,
	href_url_id BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS hreflang_html (
	id BIGSERIAL PRIMARY KEY,
	url_id BIGINT NOT NULL,
	language_code_id BIGINT NOT NULL,
	href_url_id BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS indexability (
	url_id BIGINT PRIMARY KEY,
	robots_txt_allows BOOLEAN NOT NULL,
	html_meta_allows BOOLEAN NOT NULL,
	http_header_allows BOOLEAN NOT NULL,
	overall_indexable BOOLEAN NOT NULL,
	reasons_bitmap BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sitemaps_listed (
	id BIGSERIAL PRIMARY KEY,
	url_id BIGINT NOT NULL,
	sitemap_url_id BIGINT NOT NULL,
	discovered_at TIMESTAMPTZ NOT NULL,
	UNIQUE(url_id, sitemap_url_id)
);

CREATE TABLE IF NOT EXISTS pages (
	url_id BIGINT PRIMARY KEY,
	final_status_code INTEGER NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL,
	headers_blob BYTEA NOT NULL,
	body_blob BYTEA NOT NULL,
	content_type TEXT,
	encoding TEXT
);
`
