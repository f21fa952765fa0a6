package mcpserver

// NoteFormatContract describes how notes are named and laid out in a dendra
// vault. LLM consumers should read it before creating notes.
const NoteFormatContract = `# Dendra Note Format Contract

A vault is a single flat directory. The hierarchy lives in the file names.

## Names

- A note name is a dot-delimited path: ` + "`" + `project.backend.api` + "`" + `.
- The file backing it is the name plus the vault extension: ` + "`" + `project.backend.api.md` + "`" + `.
- Every segment is non-empty. ` + "`" + `a..b` + "`" + `, ` + "`" + `.a` + "`" + ` and ` + "`" + `a.` + "`" + ` are rejected.
- Matching is case-insensitive. ` + "`" + `Project.API` + "`" + ` and ` + "`" + `project.api` + "`" + ` are the same note.
- ` + "`" + `root` + "`" + ` names the top of the tree.
- Parents do not need files. Creating ` + "`" + `a.b.c` + "`" + ` implies ` + "`" + `a` + "`" + ` and ` + "`" + `a.b` + "`" + `,
  which are shown in the tree until their last descendant is deleted.

## Structure

` + "```" + `markdown
---
title: "Human Readable Title"   # OPTIONAL – defaults to the last name segment
updated: 1700000000000          # epoch milliseconds, written on creation
created: 1700000000000          # epoch milliseconds, written on creation
---

Body text in standard Markdown.
` + "```" + `

## Rules

1. Use ` + "`" + `create_note` + "`" + ` to create notes. It writes the template above.
2. Without a ` + "`" + `title` + "`" + `, the last segment is title-cased with hyphens as
   word breaks: ` + "`" + `project.my-cool-note` + "`" + ` becomes "My Cool Note".
3. Names use hyphens inside a segment, never spaces or slashes.
4. Encoding is UTF-8 with a trailing newline.
`
