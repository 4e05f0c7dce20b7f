package shared

// Operation is a request a front-end hands to the store. The set of variants
// is closed: Read, Insert, Update, Remove and Invalid.
type Operation interface {
	operation()
}

// Read looks up the value of Key
type Read struct {
	Key string
}

// Insert writes Value under Key
type Insert struct {
	Key   string
	Value []byte
}

// Update writes Value under Key. It behaves exactly like Insert.
type Update struct {
	Key   string
	Value []byte
}

// Remove deletes Key
type Remove struct {
	Key string
}

// Invalid is produced by front-end parsers for input that maps to no operation
type Invalid struct {
	Input  string
	Reason string
}

func (Read) operation()    {}
func (Insert) operation()  {}
func (Update) operation()  {}
func (Remove) operation()  {}
func (Invalid) operation() {}
