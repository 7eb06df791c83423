package mapping

// builtinEntries is the default abbreviation table. Shorts never equal a long in this
// table, and neither side repeats, so the table is bijective on its own.
var builtinEntries = []Entry{
	// naming
	{"nm", "name"},
	{"tt", "title"},
	{"ds", "description"},
	{"lb", "label"},
	{"al", "alias"},
	{"uid", "unique_id"},
	{"hdl", "handle"},
	{"nick", "nickname"},
	{"disp", "display_name"},
	{"abbr", "abbreviation"},
	{"ref", "reference"},

	// state
	{"st", "status"},
	{"ac", "active"},
	{"en", "enabled"},
	{"vs", "visible"},
	{"lk", "locked"},
	{"ar", "archived"},
	{"dl", "deleted"},
	{"cp", "completed"},
	{"pn", "pending"},
	{"pub", "published"},
	{"drft", "draft"},
	{"appr", "approved"},
	{"rej", "rejected"},
	{"susp", "suspended"},
	{"exp", "expired"},
	{"canc", "cancelled"},
	{"proc", "processing"},
	{"succ", "success"},
	{"rdy", "ready"},

	// time
	{"cr", "created"},
	{"up", "updated"},
	{"dt", "date"},
	{"tm", "time"},
	{"ts", "timestamp"},
	{"ex", "expires"},
	{"du", "duration"},
	{"yr", "year"},
	{"mo", "month"},
	{"dy", "day"},
	{"hr", "hour"},
	{"mn", "minute"},
	{"sec", "second"},
	{"ms", "millisecond"},
	{"tz", "timezone"},
	{"strt", "start"},
	{"schd", "scheduled"},
	{"dln", "deadline"},

	// measures
	{"ct", "count"},
	{"tl", "total"},
	{"am", "amount"},
	{"pr", "price"},
	{"qt", "quantity"},
	{"rt", "rating"},
	{"sc", "score"},
	{"rk", "rank"},
	{"pct", "percent"},
	{"avg", "average"},
	{"idx", "index"},
	{"pos", "position"},
	{"ord", "order"},
	{"seq", "sequence"},
	{"num", "number"},
	{"wd", "width"},
	{"ht", "height"},
	{"sz", "size"},
	{"len", "length"},
	{"dp", "depth"},
	{"wt", "weight"},
	{"vol", "volume"},
	{"rad", "radius"},
	{"dia", "diameter"},
	{"cap", "capacity"},
	{"res", "resolution"},
	{"scl", "scale"},

	// network
	{"ur", "url"},
	{"pt", "path"},
	{"lnk", "link"},
	{"src", "source"},
	{"dst", "destination"},
	{"dom", "domain"},
	{"ep", "endpoint"},
	{"mth", "method"},
	{"hdr", "header"},
	{"bdy", "body"},
	{"qry", "query"},
	{"prm", "param"},
	{"rsp", "response"},
	{"req", "request"},
	{"ip", "ip_address"},
	{"prot", "protocol"},
	{"cert", "certificate"},

	// people and places
	{"em", "email"},
	{"ph", "phone"},
	{"ad", "address"},
	{"fn", "first_name"},
	{"lnm", "last_name"},
	{"cmp", "company"},
	{"lang", "language"},
	{"cy", "city"},
	{"co", "country"},
	{"rg", "region"},
	{"zp", "zipcode"},
	{"la", "latitude"},
	{"lo", "longitude"},
	{"loc", "location"},

	// media
	{"cl", "color"},
	{"bg", "background"},
	{"fg", "foreground"},
	{"im", "image"},
	{"ic", "icon"},
	{"th", "thumbnail"},
	{"fmt", "format"},
	{"ext", "extension"},

	// relations
	{"pa", "parent"},
	{"ch", "children"},
	{"us", "user"},
	{"ow", "owner"},
	{"au", "author"},
	{"mb", "member"},
	{"gp", "group"},
	{"org", "organization"},
	{"dept", "department"},
	{"mgr", "manager"},

	// classification
	{"ca", "category"},
	{"tg", "tags"},
	{"tp", "type"},
	{"vl", "value"},
	{"ky", "key"},
	{"md", "mode"},
	{"lv", "level"},
	{"pri", "priority"},
	{"vr", "version"},
	{"cls", "class"},

	// project
	{"ws", "workspace"},
	{"repo", "repository"},
	{"cont", "container"},
	{"proj", "project"},
	{"env", "environment"},
}

// DefaultEntries returns a copy of the built-in abbreviation table.
func DefaultEntries() []Entry {
	out := make([]Entry, len(builtinEntries))
	copy(out, builtinEntries)

	return out
}
