package mcpserver

// LifecycleContract describes the note lifecycle that LLM consumers
// must respect when scoring or promoting notes.
const LifecycleContract = `# Raido Note Lifecycle Contract

Every Markdown note in the vault carries its lifecycle state in YAML
frontmatter. The files themselves are the single source of truth; there
is no database that owns note status.

## Frontmatter fields

` + "```" + `markdown
---
status: inbox                 # REQUIRED - lifecycle state, see below
type: fleeting                # one of: fleeting, literature, permanent
quality_score: 0.85           # set via the set_quality_score tool, in [0.0, 1.0]
ai_processed: true            # set automatically when a score is recorded
processed_date: "2025-06-01T12:00:00Z"   # stamped by Raido on promotion
tags:
  - example
---

Body text in standard Markdown. Use [[wikilinks]] to reference other notes.
` + "```" + `

## Statuses

` + "```" + `
inbox -> fleeting | literature | permanent -> promoted -> published
` + "```" + `

- **inbox**: newly captured, awaiting triage.
- **fleeting / literature / permanent**: staged by type, still reviewable.
- **promoted**: accepted into its destination directory. Terminal for Raido.
- **published**: exported externally. Terminal.

Promoting an already promoted or published note is a safe no-op.

## Rules for tools

1. Score only notes you have actually read. Scores live in [0.0, 1.0];
   anything outside that range is treated as missing.
2. A note needs ` + "`" + `type` + "`" + ` set before it can be promoted; promotion
   fails cleanly without it.
3. Promotion moves the file to the directory configured for its type,
   stamps ` + "`" + `status: promoted` + "`" + ` and ` + "`" + `processed_date` + "`" + `, and leaves every
   other frontmatter line byte-for-byte untouched.
4. A snapshot is taken before every move; failed moves roll back.
5. ` + "`" + `promote_note` + "`" + ` without ` + "`" + `execute` + "`" + ` is a preview and never mutates
   the vault. Preview first when unsure.
`
