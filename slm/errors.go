package slm

import (
	"errors"
	"fmt"
)

// Sentinel errors for the device boundary.  Status values unwrap to one of
// these so callers can branch with errors.Is without caring about the raw
// vendor code.
var (
	ErrDeviceNotFound = errors.New("slm: device not found")
	ErrDeviceTimeout  = errors.New("slm: device timed out")
	ErrDeviceIO       = errors.New("slm: device I/O error")
	ErrBusy           = errors.New("slm: device busy")
	ErrInvalidFrame   = errors.New("slm: invalid frame")
)

// vendor status codes, from the SLMFunc API
const (
	codeOK             = 0
	codeNG             = 1
	codeBusy           = 2
	codeParamErr       = 3
	codeInvalidMonitor = -1
	codeMonitorNotOpen = -2
	codeWindowOpenErr  = -3
	codeDataFormatErr  = -4
	codeFileReadErr    = -101
	codeUSBNotOpen     = -200
	codeOtherError     = -1000
)

// FTDI USB driver status codes, offset below -10000 in the vendor API
const (
	codeFTInvalidHandle  = -10001
	codeFTNotFound       = -10002
	codeFTNotOpened      = -10003
	codeFTIOError        = -10004
	codeFTTimeout        = -10019
	codeFTAborted        = -10020
	codeFTIOIncomplete   = -10025
	codeFTBusy           = -10027
	codeFTNotConnected   = -10030
	codeFTBadDevicePath  = -10031
)

var statusText = map[int]string{
	codeOK:             "OK",
	codeNG:             "NG",
	codeBusy:           "SLM is busy",
	codeParamErr:       "parameter error",
	codeInvalidMonitor: "display not found",
	codeMonitorNotOpen: "display not opened",
	codeWindowOpenErr:  "window open error",
	codeDataFormatErr:  "data format error",
	codeFileReadErr:    "file read error (value over 1023?)",
	codeUSBNotOpen:     "USB not opened",
	codeOtherError:     "other error",

	codeFTInvalidHandle: "USB driver error (invalid handle)",
	codeFTNotFound:      "device not found (check power and connection)",
	codeFTNotOpened:     "device already opened",
	codeFTIOError:       "USB driver error (I/O error)",
	-10005:              "USB driver error (insufficient resources)",
	-10006:              "USB driver error (invalid parameter)",
	-10007:              "USB driver error (invalid baud rate)",
	-10008:              "USB driver error (not opened for erase)",
	-10009:              "USB driver error (not opened for write)",
	-10010:              "USB driver error (failed to write device)",
	-10011:              "USB driver error (EEPROM read failed)",
	-10012:              "USB driver error (EEPROM write failed)",
	-10013:              "USB driver error (EEPROM erase failed)",
	-10014:              "USB driver error (EEPROM not present)",
	-10015:              "USB driver error (EEPROM not programmed)",
	-10016:              "USB driver error (invalid args)",
	-10017:              "USB driver error (not supported)",
	-10018:              "USB driver error (no more items)",
	codeFTTimeout:       "USB driver error (timeout)",
	codeFTAborted:       "USB driver error (operation aborted)",
	-10021:              "USB driver error (reserved pipe)",
	-10022:              "USB driver error (invalid control request direction)",
	-10023:              "USB driver error (invalid control request type)",
	-10024:              "USB driver error (I/O pending)",
	codeFTIOIncomplete:  "USB driver error (I/O incomplete)",
	-10026:              "USB driver error (handle EOF)",
	codeFTBusy:          "USB driver error (busy)",
	-10028:              "USB driver error (no system resources)",
	-10029:              "USB driver error (device list not ready)",
	codeFTNotConnected:  "USB driver error (device not connected)",
	codeFTBadDevicePath: "USB driver error (incorrect device path)",
	-10032:              "USB driver error (other error)",
}

// Status is an error carrying the raw vendor status code.
type Status struct {
	Code int
	Text string
}

func (s Status) Error() string {
	return fmt.Sprintf("slm: status %d - %s", s.Code, s.Text)
}

// Unwrap maps the vendor code onto the sentinel class so that
// errors.Is(err, ErrDeviceTimeout) and friends work.
func (s Status) Unwrap() error {
	switch s.Code {
	case codeFTNotFound, codeFTNotConnected, codeFTBadDevicePath, codeInvalidMonitor:
		return ErrDeviceNotFound
	case codeFTTimeout:
		return ErrDeviceTimeout
	case codeBusy, codeFTBusy:
		return ErrBusy
	default:
		return ErrDeviceIO
	}
}

// statusToErr converts a vendor status code to a Go error, nil on success.
func statusToErr(code int) error {
	if code == codeOK {
		return nil
	}
	txt, ok := statusText[code]
	if !ok {
		txt = "unknown status code"
	}
	return Status{Code: code, Text: txt}
}
