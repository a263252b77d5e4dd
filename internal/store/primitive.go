package store

import "strconv"

// Each Save writes a child holding one value. Each Load reads the child back,
// returning def and false when it is missing or its payload does not parse,
// so fields added after a save simply take their defaults.

func (n *Node) SaveString(name, v string) {
	n.ChildSave(name).SetPayload(v)
}

func (n *Node) LoadString(name, def string) (string, bool) {
	c, ok := n.ChildLoad(name)
	if !ok || !c.hasPayload {
		return def, false
	}
	return c.payload, true
}

func (n *Node) SaveInt(name string, v int64) {
	n.SaveString(name, strconv.FormatInt(v, 10))
}

func (n *Node) LoadInt(name string, def int64) (int64, bool) {
	s, ok := n.LoadString(name, "")
	if !ok {
		return def, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def, false
	}
	return v, true
}

func (n *Node) SaveUint(name string, v uint64) {
	n.SaveString(name, strconv.FormatUint(v, 10))
}

func (n *Node) LoadUint(name string, def uint64) (uint64, bool) {
	s, ok := n.LoadString(name, "")
	if !ok {
		return def, false
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return def, false
	}
	return v, true
}

// SaveFloat uses the shortest representation that parses back to v exactly.
func (n *Node) SaveFloat(name string, v float64) {
	n.SaveString(name, strconv.FormatFloat(v, 'g', -1, 64))
}

func (n *Node) LoadFloat(name string, def float64) (float64, bool) {
	s, ok := n.LoadString(name, "")
	if !ok {
		return def, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def, false
	}
	return v, true
}

func (n *Node) SaveBool(name string, v bool) {
	if v {
		n.SaveString(name, "1")
	} else {
		n.SaveString(name, "0")
	}
}

func (n *Node) LoadBool(name string, def bool) (bool, bool) {
	s, ok := n.LoadString(name, "")
	switch {
	case !ok:
		return def, false
	case s == "1":
		return true, true
	case s == "0":
		return false, true
	}
	return def, false
}
