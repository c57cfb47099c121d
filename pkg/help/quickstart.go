package help

const QuickstartYAML = `# ld-enricher Quick Start

workflow:
  - "collect: download a category catalog into data/<file>.json"
  - "enrich: attach the ld+json metadata of each record's url as metaData"
  - "status: see how far a collection got and where to resume"

commands:
  collect: |
    ld-enricher collect --category 40 --city bangalore --per-page 40 --pages 84 --file kidney-care.json

  enrich: |
    ld-enricher enrich --file kidney-care.json

  enrich_range: |
    ld-enricher enrich --file kidney-care.json --start 100 --end 200 --timeout-ms 7000 --delay-ms 1200

  resume: |
    ld-enricher status --file kidney-care.json
    ld-enricher enrich --file kidney-care.json --start <first_unenriched>

  inspect: |
    ld-enricher inspect https://www.example.com/drugs/some-product
    ld-enricher inspect --html-file page.html https://www.example.com/drugs/some-product

  history: |
    ld-enricher runs
    ld-enricher run <run_id>
    ld-enricher run --failed <run_id>

records:
  - "Records are kept in file order; unknown fields are preserved"
  - "metaData: {} marks a record that was tried and failed; it is retried on the next run"
  - "Records whose metaData already carries @context or @type are skipped"
  - "The collection is rewritten after every processed record"

files:
  - "data/<file>.json (the collection)"
  - "data/<file>.json.log (failures of the last run, truncated per run)"
  - "data/enricher.db (run history, disable with --no-history)"

configuration:
  - "--config enricher.yaml (data_dir, timeout_ms, delay_ms, persist_retries, cache_dir, cache_ttl, metrics_addr, log_file)"
  - "Environment: ENRICHER_DATA_DIR, ENRICHER_TIMEOUT_MS, ENRICHER_DELAY_MS, ... (.env is loaded)"

exit_codes:
  - "0 = run completed (per-record failures included)"
  - "1 = bad input: missing file, invalid JSON, invalid range, collection locked"
  - "2 = could not persist the collection or open infrastructure"
  - "130 = interrupted; completed records are already saved"
`
