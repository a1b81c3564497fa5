// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	PgConfigNotFoundId Id = iota + 1
	PgConfigFailedId
	NoPipelineId
	UnknownPipelineId
	CommandNotFoundId
	BuildFailedId
	PermissionDeniedId
	ConfigLoadFailedId
	DistributionNotFoundId
	DigestMismatchId
	UnsafeArchiveId
	InvalidMetaId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // must never be empty
	extLinks []HttpLink
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue as styled Markdown. stylePath is a glamour style
// name ("dark", "light", "notty") or a path to a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
		for _, link := range i.extLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

const (
	pgxsDocs    HttpLink = "https://www.postgresql.org/docs/current/extend-pgxs.html"
	pgConfDocs  HttpLink = "https://www.postgresql.org/docs/current/app-pgconfig.html"
	pgrxDocs    HttpLink = "https://github.com/pgcentralfoundation/pgrx"
	metaDocs    HttpLink = "https://rfcs.pgxn.org/0003-meta-spec-v2.html"
	apiDocs     HttpLink = "https://github.com/pgxn/pgxn-api/wiki"
	pgxnManager HttpLink = "https://manager.pgxn.org/"
)

var (
	render = glamour.Render

	pgConfigNotFoundIssue = &Issue{
		id: PgConfigNotFoundId,
		mdMsg: `
# pg_config not found!

Building an extension needs the ` + "`pg_config`" + ` program of the PostgreSQL
installation you want to build against, and we could not run it.

## Things you can try:
- Install the PostgreSQL server development package
  (` + "`postgresql-server-dev-all`" + `, ` + "`postgresql-devel`" + ` or ` + "`libpq`" + ` from Homebrew)
- Point pgxnbuild at a specific installation:
~~~
$ pgxnbuild --pg-config /usr/lib/postgresql/17/bin/pg_config build
~~~
- Or set it once in your config file:
~~~cue
pg_config: "/usr/lib/postgresql/17/bin/pg_config"
~~~`,
		docLinks: []HttpLink{pgConfDocs},
	}

	pgConfigFailedIssue = &Issue{
		id: PgConfigFailedId,
		mdMsg: `
# pg_config failed!

The ` + "`pg_config`" + ` program started but exited with an error, so we could
not learn where PostgreSQL keeps its headers and libraries.

## Things you can try:
- Run it yourself and look at the output:
~~~
$ pg_config
~~~
- Make sure the path points at ` + "`pg_config`" + ` itself and not at another program
- Check that the PostgreSQL installation is complete`,
		docLinks: []HttpLink{pgConfDocs},
	}

	noPipelineIssue = &Issue{
		id: NoPipelineId,
		mdMsg: `
# Cannot tell how to build this extension!

The source directory has no makefile and no ` + "`Cargo.toml`" + `, and the
release metadata does not name a pipeline.

## What we look for:
- **pgxs**: any ` + "`GNUmakefile`" + `, ` + "`makefile`" + ` or ` + "`Makefile`" + `. One assigning ` + "`PG_CONFIG`" + ` or a PGXS variable such as ` + "`EXTENSION`" + ` scores higher.
- **pgrx**: any ` + "`Cargo.toml`" + `. One depending on ` + "`pgrx`" + ` scores highest.

## Things you can try:
- Point pgxnbuild at the extension's top-level directory.
- Check which pipeline scores highest:
~~~
$ pgxnbuild detect
~~~
- Name the pipeline in ` + "`META.json`" + `:
~~~json
"dependencies": { "pipeline": "pgxs" }
~~~`,
		docLinks: []HttpLink{metaDocs, pgxsDocs},
	}

	unknownPipelineIssue = &Issue{
		id: UnknownPipelineId,
		mdMsg: `
# Unknown build pipeline!

The release metadata names a pipeline pgxnbuild cannot drive.

## Supported pipelines:
- **pgxs**: PostgreSQL extension Makefiles
- **pgrx**: Rust extensions built with pgrx

## Things you can try:
- Fix the ` + "`dependencies.pipeline`" + ` value in ` + "`META.json`" + `
- Remove it and let pgxnbuild detect the pipeline`,
		docLinks: []HttpLink{metaDocs},
	}

	commandNotFoundIssue = &Issue{
		id: CommandNotFoundId,
		mdMsg: `
# Build tool not found!

A program the build needs could not be started.

## Things you can try:
- Install GNU make and a C compiler
- On BSD systems, use GNU make explicitly:
~~~cue
make: "gmake"
~~~
- Check that the tools are in your PATH`,
		docLinks: []HttpLink{pgxsDocs},
	}

	buildFailedIssue = &Issue{
		id: BuildFailedId,
		mdMsg: `
# Build step failed!

One of the build commands exited with an error. Its output is shown above.

## Things you can try:
- Read the first error in the compiler output, later ones often follow from it
- Make sure the extension supports your PostgreSQL version
- Re-run with verbose mode to see every command:
~~~
$ pgxnbuild --verbose build
~~~`,
		docLinks: []HttpLink{pgxsDocs},
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

You don't have permission to write into the PostgreSQL installation.

## Things you can try:
- Let pgxnbuild elevate the install step when needed:
~~~
$ pgxnbuild build --install --sudo
~~~
- Use a PostgreSQL installation you own
- Configure another elevation program:
~~~cue
sudo:     true
elevator: "doas"
~~~`,
		docLinks: []HttpLink{pgxsDocs},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or does not match the schema.

## Things you can try:
- Show where pgxnbuild looks for it:
~~~
$ pgxnbuild config path
~~~
- Write a fresh default file:
~~~
$ pgxnbuild config init
~~~
- Check the CUE syntax and the key names in the error above`,
		docLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	distributionNotFoundIssue = &Issue{
		id: DistributionNotFoundId,
		mdMsg: `
# Distribution not found!

The registry has no distribution or release by that name.

## Things you can try:
- Check the spelling, names are case-sensitive
- Leave out the version to fetch the latest stable release:
~~~
$ pgxnbuild fetch pair
~~~
- Try another mirror:
~~~
$ pgxnbuild --registry https://api.pgxn.org/ fetch pair
~~~`,
		docLinks: []HttpLink{apiDocs},
		extLinks: []HttpLink{"https://pgxn.org/"},
	}

	digestMismatchIssue = &Issue{
		id: DigestMismatchId,
		mdMsg: `
# Download verification failed!

The downloaded archive does not match the digest published in the release
metadata. The file was removed.

## Things you can try:
- Retry, the download may have been truncated
- Use another mirror
- If it keeps failing, report it to the distribution's maintainer`,
		docLinks: []HttpLink{metaDocs},
		extLinks: []HttpLink{pgxnManager},
	}

	unsafeArchiveIssue = &Issue{
		id: UnsafeArchiveId,
		mdMsg: `
# Refusing to unpack archive!

The archive contains entries that would be written outside the target
directory. Nothing outside it was touched.

## Things you can try:
- Report the release to the PGXN administrators`,
		docLinks: []HttpLink{pgxnManager},
	}

	invalidMetaIssue = &Issue{
		id: InvalidMetaId,
		mdMsg: `
# Invalid release metadata!

` + "`META.json`" + ` is missing or lacks required fields.

## Required fields:
- ` + "`name`" + `
- ` + "`version`" + `

## Things you can try:
- Validate the file against the PGXN meta spec
- Pass a directory that contains ` + "`META.json`" + ``,
		docLinks: []HttpLink{metaDocs},
	}

	issues = map[Id]*Issue{
		pgConfigNotFoundIssue.Id():     pgConfigNotFoundIssue,
		pgConfigFailedIssue.Id():       pgConfigFailedIssue,
		noPipelineIssue.Id():           noPipelineIssue,
		unknownPipelineIssue.Id():      unknownPipelineIssue,
		commandNotFoundIssue.Id():      commandNotFoundIssue,
		buildFailedIssue.Id():          buildFailedIssue,
		permissionDeniedIssue.Id():     permissionDeniedIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		distributionNotFoundIssue.Id(): distributionNotFoundIssue,
		digestMismatchIssue.Id():       digestMismatchIssue,
		unsafeArchiveIssue.Id():        unsafeArchiveIssue,
		invalidMetaIssue.Id():          invalidMetaIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
