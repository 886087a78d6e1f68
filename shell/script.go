package shell

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cjoudrey/gluahttp"
	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"
)

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal("crossfill_shell")
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	sc, ok := ud.Value.(*ShellController)
	if !ok {
		panic("shellcontroller not right type")
	}
	return sc
}

func Set(L *lua.LState) int {
	lv := L.ToString(1)
	sc := getShell(L)
	r, err := sc.set(&shellcmd{
		cmd:  "set",
		args: strings.Split(lv, " "),
	})
	if err != nil {
		log.Err(err).Msg("error-executing-set")
		L.Push(lua.LString("ERROR: " + err.Error()))
		return 1
	}
	L.Push(lua.LString(r.message))
	// return number of results pushed to stack.
	return 1
}

func Load(L *lua.LState) int {
	lv := L.ToString(1)
	sc := getShell(L)
	r, err := sc.load(&shellcmd{
		cmd:  "load",
		args: strings.Split(lv, " "),
	})
	if err != nil {
		log.Err(err).Msg("error-executing-load")
		L.Push(lua.LString("ERROR: " + err.Error()))
		return 1
	}
	L.Push(lua.LString(r.message))
	// return number of results pushed to stack.
	return 1
}

func Lexicon(L *lua.LState) int {
	lv := L.ToString(1)
	sc := getShell(L)
	var args []string
	if lv != "" {
		args = strings.Split(lv, " ")
	}
	r, err := sc.lexiconCmd(&shellcmd{
		cmd:  "lexicon",
		args: args,
	})
	if err != nil {
		log.Err(err).Msg("error-executing-lexicon")
		L.Push(lua.LString("ERROR: " + err.Error()))
		return 1
	}
	L.Push(lua.LString(r.message))
	return 1
}

// Solve runs a solve synchronously so scripts can read the fill directly.
func Solve(L *lua.LState) int {
	lv := L.ToString(1)
	sc := getShell(L)
	cmd, err := extractFields("solve " + lv)
	if err != nil {
		log.Err(err).Msg("error-parsing-solve")
		return 0
	}
	r, err := sc.solveSync(cmd)
	if err != nil {
		log.Err(err).Msg("error-executing-solve")
		L.Push(lua.LString("ERROR: " + err.Error()))
		return 1
	}
	L.Push(lua.LString(r.message))
	return 1
}

func Domains(L *lua.LState) int {
	lv := L.ToString(1)
	sc := getShell(L)
	cmd, err := extractFields("domains " + lv)
	if err != nil {
		log.Err(err).Msg("error-parsing-domains")
		return 0
	}
	r, err := sc.domains(cmd)
	if err != nil {
		log.Err(err).Msg("error-executing-domains")
		return 0
	}
	L.Push(lua.LString(r.message))
	return 1
}

func Autosolve(L *lua.LState) int {
	lv := L.ToString(1)
	sc := getShell(L)
	cmd, err := extractFields("autosolve " + lv)
	if err != nil {
		log.Err(err).Msg("error-parsing-autosolve")
		return 0
	}
	r, err := sc.autosolve(cmd)
	if err != nil {
		log.Err(err).Msg("error-executing-autosolve")
		return 0
	}
	L.Push(lua.LString(r.message))
	return 1
}

func (sc *ShellController) script(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return nil, errors.New("need arguments for script")
	}

	filepath := cmd.args[0]

	L := lua.NewState()
	defer L.Close()

	L.PreloadModule("http", gluahttp.NewHttpModule(&http.Client{}).Loader)
	luajson.Preload(L)

	lsc := L.NewUserData()
	lsc.Value = sc

	L.SetGlobal("crossfill_shell", lsc)
	L.SetGlobal("crossfill_load", L.NewFunction(Load))
	L.SetGlobal("crossfill_set", L.NewFunction(Set))
	L.SetGlobal("crossfill_lexicon", L.NewFunction(Lexicon))
	L.SetGlobal("crossfill_solve", L.NewFunction(Solve))
	L.SetGlobal("crossfill_domains", L.NewFunction(Domains))
	L.SetGlobal("crossfill_autosolve", L.NewFunction(Autosolve))

	if err := L.DoFile(filepath); err != nil {
		log.Err(err).Msg("there was a error")
		return nil, err
	}
	return nil, nil
}
