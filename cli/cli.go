// Package cli implements the lsdb command line.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog"
	. "github.com/stevegt/goadapt"

	"github.com/stevemurr/lsdb/config"
	"github.com/stevemurr/lsdb/ident"
	"github.com/stevemurr/lsdb/lsdb"
	"github.com/stevemurr/lsdb/query"
	"github.com/stevemurr/lsdb/store"
)

// errNoMatch makes find-one exit 1 without printing an error.
var errNoMatch = errors.New("no matching document")

type cmdCollections struct{}

type cmdCollection struct {
	Names      []string `arg:"" help:"Collection names to declare."`
	KeepSorted bool     `short:"s" help:"Keep the collection sorted after every change."`
	SortKey    string   `short:"k" help:"Field to keep the collection sorted by (implies --keep-sorted)."`
}

type cmdInsert struct {
	Collection string `arg:"" help:"Collection name."`
	Document   string `arg:"" help:"Document as a JSON object, or - to read stdin."`
}

type cmdInsertMany struct {
	Collection string `arg:"" help:"Collection name."`
	Documents  string `arg:"" help:"Documents as a JSON array of objects, or - to read stdin."`
}

type cmdFind struct {
	Collection string `arg:"" help:"Collection name."`
	Query      string `arg:"" optional:"" help:"Query as JSON: {\"where\":{...},\"sort\":{...},\"limit\":n}."`
}

type cmdFindOne struct {
	Collection string `arg:"" help:"Collection name."`
	Query      string `arg:"" optional:"" help:"Query as JSON."`
}

type cmdUpdate struct {
	Collection string `arg:"" help:"Collection name."`
	Filter     string `arg:"" help:"Fields the document must equal, as a JSON object."`
	Patch      string `arg:"" help:"Fields to replace, as a JSON object."`
}

type cmdDelete struct {
	Collection string `arg:"" help:"Collection name."`
	Query      string `arg:"" optional:"" help:"Query as JSON; only where is used. Empty deletes everything."`
}

type cmdAll struct {
	Collection string `arg:"" optional:"" help:"Collection name; all collections when omitted."`
}

type cmdCount struct {
	Collection string `arg:"" help:"Collection name."`
}

type cmdVersion struct{}

type cliArgs struct {
	Config  string `help:"Config file (json, yaml, toml)." type:"path"`
	Backend string `short:"b" help:"Storage backend: json, sqlite, bolt, badger or memory."`
	DataDir string `short:"d" help:"Directory holding the storage backend's files."`
	Name    string `short:"n" help:"Database name."`
	Verbose bool   `short:"v" help:"Log debug information on stderr."`

	Collections cmdCollections `cmd:"" help:"List declared collections."`
	Collection  cmdCollection  `cmd:"" help:"Declare one or more collections."`
	Insert      cmdInsert      `cmd:"" help:"Insert a document and print it with its _id."`
	InsertMany  cmdInsertMany  `cmd:"" name:"insert-many" help:"Insert several documents."`
	Find        cmdFind        `cmd:"" help:"Print the documents matching a query."`
	FindOne     cmdFindOne     `cmd:"" name:"find-one" help:"Print the first document matching a query; exits 1 if none."`
	Update      cmdUpdate      `cmd:"" help:"Patch the first document whose fields equal the filter."`
	Delete      cmdDelete      `cmd:"" help:"Delete the documents matching a query."`
	All         cmdAll         `cmd:"" help:"Print every document of one or all collections."`
	Count       cmdCount       `cmd:"" help:"Print the number of documents in a collection."`
	Version     cmdVersion     `cmd:"" help:"Show the version."`
}

// CliConfig contains the configuration for the lsdb cli.
type CliConfig struct {
	// Name is the name of the program
	Name string
	// Description is a short description of the program
	Description string
	// Version is the version of the program
	Version string
	// Exit is the function kong calls to exit the program
	Exit   func(int)
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// version is reported by `lsdb version`.
const version = "0.1.0"

// NewCliConfig returns a new CliConfig with default values populated.
func NewCliConfig() *CliConfig {
	return &CliConfig{
		Name:        "lsdb",
		Description: "An embedded JSON document store over a key-value backend.",
		Version:     version,
		Exit:        func(i int) { os.Exit(i) },
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}
}

// runEnv is bound into every command's Run method.
type runEnv struct {
	db      *lsdb.DB
	version string
	stdin   io.Reader
	stdout  io.Writer
}

// Cli parses args and runs the selected command. rc is the process exit
// code; err is non-nil when the command failed.
func Cli(args []string, cfg *CliConfig) (rc int, err error) {
	defer func() {
		if err != nil {
			Fpf(cfg.Stderr, "%s: error: %v\n", cfg.Name, err)
			rc = 1
		}
	}()
	defer Return(&err)

	var a cliArgs
	parser, err := kong.New(&a,
		kong.Name(cfg.Name),
		kong.Description(cfg.Description),
		kong.Exit(cfg.Exit),
		kong.Writers(cfg.Stdout, cfg.Stderr),
	)
	Ck(err)
	ctx, err := parser.Parse(args)
	Ck(err)

	env := &runEnv{version: cfg.Version, stdin: cfg.Stdin, stdout: cfg.Stdout}
	if ctx.Command() != "version" {
		db, closer, err := open(&a, cfg.Stderr)
		Ck(err)
		defer closer.Close()
		env.db = db
	}

	err = ctx.Run(env)
	if errors.Is(err, errNoMatch) {
		return 1, nil
	}
	Ck(err)
	return 0, nil
}

// open resolves configuration, flags overriding config, and opens the
// database.
func open(a *cliArgs, stderr io.Writer) (*lsdb.DB, io.Closer, error) {
	cfg, err := config.Load(a.Config)
	if err != nil {
		return nil, nil, err
	}
	if a.Backend != "" {
		cfg.Backend = a.Backend
	}
	if a.DataDir != "" {
		cfg.DataDir = a.DataDir
	}
	if a.Name != "" {
		cfg.Name = a.Name
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level := cfg.Level()
	if a.Verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(stderr).Level(level).With().Timestamp().Logger()

	ids, err := ident.New(cfg.IDScheme)
	if err != nil {
		return nil, nil, err
	}
	s, err := store.New(cfg.Backend, cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create store (backend=%s): %w", cfg.Backend, err)
	}
	db, err := lsdb.Open(cfg.Name, s, lsdb.WithLogger(logger), lsdb.WithIDGenerator(ids))
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	logger.Debug().Str("backend", cfg.Backend).Str("data_dir", cfg.DataDir).Msg("opened")
	return db, s, nil
}

func (e *runEnv) print(v any) error {
	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// input returns arg, or all of stdin when arg is "-".
func (e *runEnv) input(arg string) ([]byte, error) {
	if arg == "-" {
		return io.ReadAll(e.stdin)
	}
	return []byte(arg), nil
}

func (e *runEnv) object(arg string) (map[string]any, error) {
	b, err := e.input(arg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("expected a JSON object: %w", err)
	}
	return m, nil
}

func (e *runEnv) query(arg string) (query.Query, error) {
	b, err := e.input(arg)
	if err != nil {
		return query.Query{}, err
	}
	if strings.TrimSpace(string(b)) == "" {
		return query.Query{}, nil
	}
	return query.Parse(b)
}

func (c *cmdCollections) Run(env *runEnv) (err error) {
	defer Return(&err)
	names, err := env.db.Collections()
	Ck(err)
	return env.print(names)
}

func (c *cmdCollection) Run(env *runEnv) (err error) {
	defer Return(&err)
	var opts []lsdb.CollectionOption
	switch {
	case c.SortKey != "":
		opts = append(opts, lsdb.SortedBy(c.SortKey))
	case c.KeepSorted:
		opts = append(opts, lsdb.KeepSorted())
	}
	err = env.db.Collection(c.Names, opts...)
	Ck(err)
	return env.print(map[string]string{"status": "success"})
}

func (c *cmdInsert) Run(env *runEnv) (err error) {
	defer Return(&err)
	doc, err := env.object(c.Document)
	Ck(err)
	d, err := env.db.Insert(c.Collection, doc)
	Ck(err)
	return env.print(d)
}

func (c *cmdInsertMany) Run(env *runEnv) (err error) {
	defer Return(&err)
	b, err := env.input(c.Documents)
	Ck(err)
	var docs []map[string]any
	if err = json.Unmarshal(b, &docs); err != nil {
		return fmt.Errorf("expected a JSON array of objects: %w", err)
	}
	inserted, err := env.db.InsertMany(c.Collection, docs)
	Ck(err)
	return env.print(inserted)
}

func (c *cmdFind) Run(env *runEnv) (err error) {
	defer Return(&err)
	q, err := env.query(c.Query)
	Ck(err)
	docs, err := env.db.Find(c.Collection, q)
	Ck(err)
	return env.print(docs)
}

func (c *cmdFindOne) Run(env *runEnv) (err error) {
	defer Return(&err)
	q, err := env.query(c.Query)
	Ck(err)
	doc, ok, err := env.db.FindOne(c.Collection, q)
	Ck(err)
	if !ok {
		Ck(env.print(nil))
		return errNoMatch
	}
	return env.print(doc)
}

func (c *cmdUpdate) Run(env *runEnv) (err error) {
	defer Return(&err)
	filter, err := env.object(c.Filter)
	Ck(err)
	patch, err := env.object(c.Patch)
	Ck(err)
	doc, ok, err := env.db.Update(c.Collection, filter, patch)
	Ck(err)
	if !ok {
		return env.print(nil)
	}
	return env.print(doc)
}

func (c *cmdDelete) Run(env *runEnv) (err error) {
	defer Return(&err)
	q, err := env.query(c.Query)
	Ck(err)
	n, err := env.db.Delete(c.Collection, q)
	Ck(err)
	return env.print(map[string]int{"deleted": n})
}

func (c *cmdAll) Run(env *runEnv) (err error) {
	defer Return(&err)
	if c.Collection == "" {
		all, err := env.db.AllCollections()
		Ck(err)
		return env.print(all)
	}
	docs, err := env.db.All(c.Collection)
	Ck(err)
	return env.print(docs)
}

func (c *cmdCount) Run(env *runEnv) (err error) {
	defer Return(&err)
	n, err := env.db.Count(c.Collection)
	Ck(err)
	return env.print(n)
}

func (c *cmdVersion) Run(env *runEnv) error {
	_, err := fmt.Fprintln(env.stdout, env.version)
	return err
}
