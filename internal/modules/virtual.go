package modules

import (
	"github.com/funvibe/dsema/internal/config"
)

// rootModuleSource declares the aliases every module sees without importing
// anything. It stands in for the runtime's object module when the sources
// do not ship one.
const rootModuleSource = `
alias string = immutable(char)[];
alias wstring = immutable(wchar)[];
alias dstring = immutable(dchar)[];
alias size_t = ulong;
alias ptrdiff_t = long;
alias hash_t = size_t;

class Object
{
    string toString();
    size_t toHash();
    int opCmp(Object o);
    bool opEquals(Object o);
}

class Throwable
{
    string msg;
    this(string msg);
}

class Exception : Throwable
{
    this(string msg);
}

class Error : Throwable
{
    this(string msg);
}

class TypeInfo
{
    size_t tsize();
}

class TypeInfo_Class : TypeInfo
{
    string name;
}
`

// virtualRoot parses the built-in root module under name.
func (l *Loader) virtualRoot(name string) *Module {
	if name == "" {
		name = config.DefaultRootModule
	}
	m := l.ParseSource("", rootModuleSource)
	m.AST.ModuleName = name
	m.Name = name
	m.IsVirtual = true
	return m
}
