package mcpserver

// FrontMatterContract describes the canonical document format that LLM
// consumers should follow when creating or updating documents.
const FrontMatterContract = `# Lectern Document Format Contract

Every Markdown document stored in Lectern MUST follow this structure.

## Structure

` + "```" + `markdown
+++
title = 'Human-readable title'      # RECOMMENDED - used in listings and search
description = 'One-line summary'    # OPTIONAL
date = 2025-01-15                   # OPTIONAL - date or RFC 3339 datetime
draft = false                       # OPTIONAL - drafts are hidden from listings
tags = ['tag-one', 'tag-two']       # OPTIONAL - list of strings
categories = ['category-one']       # OPTIONAL - list of strings
+++
Body text in standard Markdown.

Link to other documents with relative Markdown links: [see also](other-post.md).
` + "```" + `

## Rules

1. **Front matter is delimited by ` + "`" + `+++` + "`" + ` lines** (TOML). A ` + "`" + `---` + "`" + ` fence with
   YAML content is also accepted. The opening fence must be the very first
   line of the file; an opening fence without a closing fence is rejected
   as malformed.
2. **A document may omit front matter entirely** - the whole file is then
   treated as body text.
3. **Keys use ` + "`" + `key = value` + "`" + ` TOML syntax.** Strings are quoted, lists use
   brackets, booleans are bare ` + "`" + `true` + "`" + `/` + "`" + `false` + "`" + `.
4. **Tags and categories** are lowercase, kebab-case (e.g. ` + "`" + `project-x` + "`" + `).
5. **Internal links** are relative paths ending in ` + "`" + `.md` + "`" + `; absolute URLs
   (http, https, mailto) are treated as external and not tracked.
6. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
7. **Encoding** is UTF-8 with a trailing newline.

## Attachments & Images

- Upload files via the ` + "`" + `upload_attachment` + "`" + ` tool. It returns a
  ` + "`" + `markdownImage` + "`" + ` field ready to paste into the document body.
- Attachments are stored in the shared ` + "`" + `attachments/` + "`" + ` directory (flat,
  no sub-folders).
- Reference them with the absolute path: ` + "`" + `![description](/attachments/filename.png)` + "`" + `
- Supported formats: png, jpg, jpeg, gif, webp, svg, pdf.

## Example

` + "```" + `markdown
+++
title = 'Understanding Ownership'
description = 'How move semantics shape API design'
date = 2025-01-20
tags = ['rust', 'memory']
categories = ['programming']
+++
# Understanding Ownership

Ownership is the core idea...

![Stack diagram](/attachments/ownership-stack.png)

See the [borrowing post](borrowing.md) for the follow-up.
` + "```" + `
`
