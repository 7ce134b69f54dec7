package calib

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/snksoft/crc"

	"github.com/opticslab/goslm/slm"
)

// Persisted tables are two-column CSV with comment headers and a CRC16
// footer.  Text keeps the files diffable in lab notebooks; the checksum
// catches truncation, which silently corrupts a binary dump.

var crcTable = crc.NewTable(crc.XMODEM)

// checksum computes the two-byte XMODEM CRC over the data rows.
func checksum(rows []byte) uint16 {
	c := crcTable.InitCrc()
	c = crcTable.UpdateCrc(c, rows)
	return crcTable.CRC16(c)
}

// Save writes a table to w in the persisted CSV form.
func Save(w io.Writer, t *Table) error {
	var rows strings.Builder
	step := t.PhaseStep()
	for k, g := range t.Grey {
		fmt.Fprintf(&rows, "%.9f,%d\n", float64(k)*step, g)
	}
	body := rows.String()
	_, err := fmt.Fprintf(w, "# goslm lookup table v1\n# wavelength_nm: %g\n# resolution: %d\n%s# crc16: %04X\n",
		t.WavelengthNM, len(t.Grey), body, checksum([]byte(body)))
	return err
}

// Load reads a table written by Save, verifying the checksum.  A missing
// or mismatched checksum, or a row count disagreeing with the resolution
// header, is reported as corruption; no partial table is returned.
func Load(r io.Reader) (*Table, error) {
	var (
		rows       strings.Builder
		greys      []uint16
		wavelength float64
		resolution int
		gotCRC     = false
		wantCRC    uint16
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "#") {
			fields := strings.Fields(strings.TrimPrefix(line, "#"))
			if len(fields) == 2 {
				switch fields[0] {
				case "wavelength_nm:":
					wavelength, _ = strconv.ParseFloat(fields[1], 64)
				case "resolution:":
					resolution, _ = strconv.Atoi(fields[1])
				case "crc16:":
					v, err := strconv.ParseUint(fields[1], 16, 16)
					if err != nil {
						return nil, fmt.Errorf("calib: bad checksum line %q", line)
					}
					wantCRC = uint16(v)
					gotCRC = true
				}
			}
			continue
		}
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("calib: bad table row %q", line)
		}
		g, err := strconv.Atoi(parts[1])
		if err != nil || g < 0 || g > slm.MaxGrey {
			return nil, fmt.Errorf("calib: bad grey level in row %q", line)
		}
		rows.WriteString(line)
		rows.WriteByte('\n')
		greys = append(greys, uint16(g))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(greys) == 0 {
		return nil, fmt.Errorf("calib: table file holds no rows")
	}
	if !gotCRC {
		return nil, fmt.Errorf("calib: table file has no checksum, refusing to trust it")
	}
	if got := checksum([]byte(rows.String())); got != wantCRC {
		return nil, fmt.Errorf("calib: checksum mismatch, file corrupt (have %04X want %04X)", got, wantCRC)
	}
	if resolution != 0 && resolution != len(greys) {
		return nil, fmt.Errorf("calib: header says %d rows, file holds %d", resolution, len(greys))
	}
	return &Table{Grey: greys, WavelengthNM: wavelength}, nil
}
