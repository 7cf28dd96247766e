package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/flintfs/flintfs/internal/logger"
	"github.com/flintfs/flintfs/pkg/config"
	"github.com/flintfs/flintfs/pkg/copier"
	"github.com/flintfs/flintfs/pkg/flint"
	"github.com/flintfs/flintfs/pkg/vfs"
)

const usage = `Usage: flintfs [flags] <command> [args]

Commands:
  format                  re-initialize the volume (destroys all content)
  info                    print volume capacity and state
  ls [path]               list a directory (default "/")
  cat <path>              print file content to stdout
  mkdir <path>            create a directory
  rm <path>               remove a file or empty directory
  import <hostdir> [dir]  copy a host tree into the volume
  export [dir] <hostdir>  copy a volume tree to the host

Flags:
`

func main() {
	configPath := flag.String("config", "", "Path to config file")
	logLevel := flag.String("log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	profile := flag.Bool("profile", false, "Print device I/O statistics on exit")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flintfs: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	logger.SetLevel(cfg.Logging.Level)

	if err := run(cfg, *profile, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "flintfs: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, profile bool, args []string) error {
	ctx := context.Background()

	part, err := config.CreatePartition(ctx, &cfg.Partition)
	if err != nil {
		return err
	}
	defer closePartition(part)

	fs := flint.New(part)

	var prof *vfs.CountingProfiler
	if profile {
		prof = &vfs.CountingProfiler{}
		fs.SetProfiler(prof)
		defer func() { fmt.Fprintln(os.Stderr, prof.String()) }()
	}

	command, args := args[0], args[1:]

	// format works on unmountable volumes too, so it skips the mount.
	if command == "format" {
		return fs.Format()
	}

	if err := fs.Mount(); err != nil {
		return err
	}

	switch command {
	case "info":
		return runInfo(fs)
	case "ls":
		path := "/"
		if len(args) > 0 {
			path = args[0]
		}
		return runList(fs, path)
	case "cat":
		if len(args) != 1 {
			return fmt.Errorf("cat: expected exactly one path")
		}
		return runCat(fs, args[0])
	case "mkdir":
		if len(args) != 1 {
			return fmt.Errorf("mkdir: expected exactly one path")
		}
		return fs.Mkdir(args[0])
	case "rm":
		if len(args) != 1 {
			return fmt.Errorf("rm: expected exactly one path")
		}
		return fs.Remove(args[0])
	case "import":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("import: expected <hostdir> [dir]")
		}
		volDir := "/"
		if len(args) == 2 {
			volDir = args[1]
		}
		return newCopier(fs, cfg).Import(args[0], volDir)
	case "export":
		switch len(args) {
		case 1:
			return newCopier(fs, cfg).Export("/", args[0])
		case 2:
			return newCopier(fs, cfg).Export(args[0], args[1])
		default:
			return fmt.Errorf("export: expected [dir] <hostdir>")
		}
	default:
		return fmt.Errorf("unknown command: %q", command)
	}
}

func newCopier(fs vfs.FileSystem, cfg *config.Config) *copier.Copier {
	if cfg.Copier.Compression == "lz4" {
		return copier.New(fs, copier.WithLZ4(cfg.Copier.CompressMin))
	}
	return copier.New(fs)
}

func runInfo(fs vfs.FileSystem) error {
	info, err := fs.GetInfo()
	if err != nil {
		return err
	}
	fmt.Printf("type:         %s\n", info.Type)
	fmt.Printf("mounted:      %v\n", info.Mounted)
	fmt.Printf("volume size:  %d\n", info.VolumeSize)
	fmt.Printf("free space:   %d\n", info.FreeSpace)
	fmt.Printf("used:         %d\n", info.Used())
	fmt.Printf("max name len: %d\n", info.MaxNameLength)
	return nil
}

func runList(fs vfs.FileSystem, path string) error {
	dir, err := fs.OpenDir(path)
	if err != nil {
		return err
	}
	defer dir.Close()

	for {
		var st vfs.Stat
		if err := dir.Read(&st); err != nil {
			if vfs.IsCode(err, vfs.ErrNoMoreFiles) {
				return nil
			}
			return err
		}
		kind := "-"
		if st.IsDir() {
			kind = "d"
		}
		fmt.Printf("%s %10d  %s  %s\n", kind, st.Size, st.MTime.Time().Format("2006-01-02 15:04:05"), st.Name)
	}
}

func runCat(fs vfs.FileSystem, path string) error {
	h, err := fs.Open(path, vfs.OpenRead)
	if err != nil {
		return err
	}
	defer fs.Close(h)

	buf := make([]byte, 4096)
	for {
		n, err := fs.Read(h, buf)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if _, err := os.Stdout.Write(buf[:n]); err != nil {
			return err
		}
	}
}

// closePartition closes backends that hold external resources.
func closePartition(part any) {
	if closer, ok := part.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("closing partition: %v", err)
		}
	}
}
