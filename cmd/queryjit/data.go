package main

import (
	"fmt"
	"path/filepath"

	"github.com/tpch-jitq/queryjit/loader"
	"github.com/tpch-jitq/queryjit/operators"
	"github.com/tpch-jitq/queryjit/types"
)

const (
	int32Col  = types.Int32
	int64Col  = types.Int64
	doubleCol = types.Double
	dateCol   = types.Date
	stringCol = types.String
)

// columnSpec names one "<table>/<column>.bin" file and its type.
type columnSpec struct {
	name string
	tag  types.Tag
}

func col(name string, tag types.Tag) columnSpec { return columnSpec{name: name, tag: tag} }

// loadTable mmaps every column a query needs from one TPC-H table
// directory (spec §6) and assembles them into an operators.Table. The
// returned closer unmaps every column; callers must defer it.
func loadTable(tpchpath, table string, specs ...columnSpec) (*operators.Table, func(), error) {
	cols := make([]*operators.Column, len(specs))
	mappings := make([]*loader.Mapping, 0, len(specs))
	closer := func() {
		for _, m := range mappings {
			_ = m.Close()
		}
	}

	for i, sp := range specs {
		path := filepath.Join(tpchpath, table, sp.name+".bin")
		var (
			c   *operators.Column
			m   *loader.Mapping
			err error
		)
		if sp.tag == types.String {
			c, m, err = loader.StringColumn(path, sp.name)
		} else {
			c, m, err = loader.FixedColumn(path, sp.name, sp.tag)
		}
		if err != nil {
			closer()
			return nil, nil, fmt.Errorf("loading %s.%s: %w", table, sp.name, err)
		}
		cols[i] = c
		mappings = append(mappings, m)
	}
	return operators.NewTable(table, cols...), closer, nil
}

// findAsiaRegionKey scans the tiny region table once for r_name = 'ASIA'
// and returns its r_regionkey as a constant, folding what would otherwise
// be Q5's fifth join into a single dimension lookup (see runQ5's doc
// comment).
func findAsiaRegionKey(tpchpath string) (types.Value, error) {
	table, closer, err := loadTable(tpchpath, "region", col("r_regionkey", int32Col), col("r_name", stringCol))
	if err != nil {
		return types.Value{}, err
	}
	defer closer()

	keyCol := table.Column("r_regionkey")
	nameCol := table.Column("r_name")
	for i := 0; i < table.NumRows; i++ {
		if nameCol.Vals[i].Str().String() == "ASIA" {
			return keyCol.Vals[i], nil
		}
	}
	return types.Value{}, fmt.Errorf("region table has no ASIA row")
}

func dateConst(v int32) types.Value   { return types.DateValue(v) }
func doubleConst(v float64) types.Value { return types.DoubleValue(v) }
