package status

// CategoryStatus is the single-letter status of one check category for a file,
// as shown in the dashboard table cells.
type CategoryStatus string

const (
	StatusNotApplicable CategoryStatus = "n"
	StatusValid         CategoryStatus = "v"
	StatusInvalid       CategoryStatus = "i"
	StatusWarning       CategoryStatus = "w"
	StatusPending       CategoryStatus = "p"
	StatusNone          CategoryStatus = "-"
)

// Label returns the human-readable label for a category status
func (s CategoryStatus) Label() string {
	switch s {
	case StatusValid:
		return "Valid"
	case StatusInvalid:
		return "Invalid"
	case StatusNotApplicable:
		return "N/A"
	case StatusWarning:
		return "Warning"
	case StatusPending:
		return "Pending..."
	case StatusNone:
		return "N/A"
	}
	return "Unknown"
}

// Icon returns the icon class used by the table cells
func (s CategoryStatus) Icon() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusWarning:
		return "warning"
	case StatusInvalid:
		return "invalid"
	case StatusNotApplicable:
		return "not"
	case StatusPending:
		return "pending"
	case StatusNone:
		return "blocked"
	}
	return "unknown"
}

// Color returns the background color for a category status cell
func (s CategoryStatus) Color() string {
	switch s {
	case StatusValid:
		return "rgb(217, 242, 217)"
	case StatusInvalid:
		return "rgb(255, 204, 204)"
	case StatusWarning:
		return "rgb(253, 253, 150)"
	}
	return "#dddddd"
}

// combineRank orders the four combinable statuses: v < n < w < i.
// Statuses outside the order rank lowest so Combine stays total.
func combineRank(s CategoryStatus) int {
	switch s {
	case StatusValid:
		return 1
	case StatusNotApplicable:
		return 2
	case StatusWarning:
		return 3
	case StatusInvalid:
		return 4
	}
	return 0
}

// Combine merges two category statuses into the one displayed cell,
// keeping the status with the highest rank. The ordering is a total
// order, so Combine is associative and commutative.
func Combine(a, b CategoryStatus) CategoryStatus {
	if combineRank(b) > combineRank(a) {
		return b
	}
	return a
}

// Severity classifies a single outcome record. It is a closed 5-value
// ordinal, distinct from the per-file CategoryStatus.
type Severity int

const (
	SeverityNotApplicable Severity = 0 // n/a or disabled
	SeverityApplicable    Severity = 1 // executed
	SeverityPassed        Severity = 2
	SeverityWarning       Severity = 3
	SeverityError         Severity = 4
)

// Valid reports whether the severity is within the closed enum
func (s Severity) Valid() bool {
	return s >= SeverityNotApplicable && s <= SeverityError
}

// Label returns the human-readable label for a severity
func (s Severity) Label() string {
	switch s {
	case SeverityNotApplicable:
		return "N/A"
	case SeverityApplicable:
		return "Applicable"
	case SeverityPassed:
		return "Passed"
	case SeverityWarning:
		return "Warning"
	case SeverityError:
		return "Error"
	}
	return "Unknown"
}

// Status maps a severity onto the simpler category status axis
func (s Severity) Status() CategoryStatus {
	switch s {
	case SeverityNotApplicable:
		return StatusNotApplicable
	case SeverityApplicable, SeverityPassed:
		return StatusValid
	case SeverityWarning:
		return StatusWarning
	case SeverityError:
		return StatusInvalid
	}
	return StatusNone
}

// Color returns the background color used inside report groups
func (s Severity) Color() string {
	switch s {
	case SeverityNotApplicable:
		return "#dddddd"
	case SeverityApplicable, SeverityPassed:
		return "rgb(217, 242, 217)"
	case SeverityWarning:
		return "rgb(253, 253, 150)"
	case SeverityError:
		return "rgb(255, 204, 204)"
	}
	return "#dddddd"
}
