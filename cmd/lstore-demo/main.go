// Command lstore-demo is a small CLI front-end over package lstore: create
// tables, insert/select/update/delete rows, run aggregates, and persist
// between invocations via a single snapshot path.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/markkurossi/tabulate"
	"github.com/spf13/cobra"

	"github.com/go-lstore/lstore/engine"
	"github.com/go-lstore/lstore/lstore"
)

var dbPath string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lstore-demo",
		Short: "CLI front-end for the lstore columnar storage engine",
	}
	root.PersistentFlags().StringVar(&dbPath, "path", "lstore.db", "database snapshot path")

	root.AddCommand(
		createTableCmd(),
		insertCmd(),
		selectCmd(),
		updateCmd(),
		deleteCmd(),
		sumCmd(),
		incrementCmd(),
		demoCmd(),
	)
	return root
}

func withDatabase(fn func(db *lstore.Database) error) error {
	db, err := lstore.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", dbPath, err)
	}
	if err := fn(db); err != nil {
		db.Close()
		return err
	}
	return db.Close()
}

func parseInt64s(args []string) ([]int64, error) {
	out := make([]int64, len(args))
	for i, a := range args {
		v, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("argument %q is not an integer: %w", a, err)
		}
		out[i] = v
	}
	return out, nil
}

func createTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-table NAME N K",
		Short: "create a table with N user columns and primary key column K",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			k, err := strconv.Atoi(args[2])
			if err != nil {
				return err
			}
			return withDatabase(func(db *lstore.Database) error {
				_, err := db.CreateTable(args[0], n, k)
				return err
			})
		},
	}
}

func insertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insert TABLE V0 V1 ...",
		Short: "insert a row",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseInt64s(args[1:])
			if err != nil {
				return err
			}
			return withDatabase(func(db *lstore.Database) error {
				q, err := db.Query(args[0])
				if err != nil {
					return err
				}
				if ok := q.Insert(values...); !ok {
					return fmt.Errorf("insert: key already exists")
				}
				return nil
			})
		},
	}
}

func selectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select TABLE KEY KEY_COL N",
		Short: "select a row by key and print its N projected columns",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return err
			}
			keyCol, err := strconv.Atoi(args[2])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[3])
			if err != nil {
				return err
			}
			mask := make([]bool, n)
			for i := range mask {
				mask[i] = true
			}
			return withDatabase(func(db *lstore.Database) error {
				q, err := db.Query(args[0])
				if err != nil {
					return err
				}
				recs := q.Select(key, keyCol, mask)
				printRecords(recs)
				return nil
			})
		},
	}
}

func updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update TABLE KEY V0 V1 ...",
		Short: `update a row; pass "-" for a column to leave it unchanged`,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return err
			}
			cols := make([]*int64, len(args)-2)
			for i, a := range args[2:] {
				if a == "-" {
					continue
				}
				v, err := strconv.ParseInt(a, 10, 64)
				if err != nil {
					return fmt.Errorf("argument %q is not an integer: %w", a, err)
				}
				cols[i] = &v
			}
			return withDatabase(func(db *lstore.Database) error {
				q, err := db.Query(args[0])
				if err != nil {
					return err
				}
				if ok := q.Update(key, cols); !ok {
					return fmt.Errorf("update: key not found or schema violation")
				}
				return nil
			})
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete TABLE KEY",
		Short: "delete a row by key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return err
			}
			return withDatabase(func(db *lstore.Database) error {
				q, err := db.Query(args[0])
				if err != nil {
					return err
				}
				if ok := q.Delete(key); !ok {
					return fmt.Errorf("delete: key not found")
				}
				return nil
			})
		},
	}
}

func sumCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sum TABLE LO HI COL",
		Short: "sum a column's latest value over a key range",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			lo, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return err
			}
			hi, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return err
			}
			col, err := strconv.Atoi(args[3])
			if err != nil {
				return err
			}
			return withDatabase(func(db *lstore.Database) error {
				q, err := db.Query(args[0])
				if err != nil {
					return err
				}
				sum, ok := q.Sum(lo, hi, col)
				if !ok {
					return fmt.Errorf("sum: no key in range")
				}
				fmt.Println(sum)
				return nil
			})
		},
	}
}

func incrementCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "increment TABLE KEY COL",
		Short: "add one to a column's value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return err
			}
			col, err := strconv.Atoi(args[2])
			if err != nil {
				return err
			}
			return withDatabase(func(db *lstore.Database) error {
				q, err := db.Query(args[0])
				if err != nil {
					return err
				}
				if ok := q.Increment(key, col); !ok {
					return fmt.Errorf("increment: key not found")
				}
				return nil
			})
		},
	}
}

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "run a scripted walkthrough against a fresh Grades table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db *lstore.Database) error {
				table, err := db.CreateTable("Grades", 3, 0)
				if err != nil {
					return err
				}
				q, err := db.Query("Grades")
				if err != nil {
					return err
				}
				for k := int64(1); k <= 5; k++ {
					q.Insert(k, 100, 200)
				}
				q.Update(1, []*int64{nil, int64Ptr(999), nil})
				q.Delete(2)

				mask := []bool{true, true, true}
				fmt.Println("latest rows:")
				var recs []engine.Record
				for k := int64(1); k <= 5; k++ {
					recs = append(recs, q.Select(k, 0, mask)...)
				}
				printRecords(recs)

				_ = table
				return nil
			})
		},
	}
}

func int64Ptr(v int64) *int64 { return &v }

func printRecords(recs []engine.Record) {
	tab := tabulate.New(tabulate.UnicodeLight)
	if len(recs) == 0 {
		fmt.Println("(no rows)")
		return
	}
	for i := range recs[0].Columns() {
		tab.Header(fmt.Sprintf("col%d", i))
	}
	for _, rec := range recs {
		row := tab.Row()
		for _, v := range rec.Columns() {
			row.Column(strconv.FormatInt(v, 10))
		}
	}
	tab.Print(os.Stdout)
}
