package rpc

import "net/http"

type createUserParams struct {
	Caller       string `json:"caller"`
	Username     string `json:"username"`
	MetadataHash string `json:"metadataHash,omitempty"`
}

type updateMetadataParams struct {
	Caller       string `json:"caller"`
	MetadataHash string `json:"metadataHash"`
}

type getProfileParams struct {
	Address string `json:"address"`
}

type profileResult struct {
	LatestInteraction int64  `json:"latestInteraction"`
	MetadataHash      string `json:"metadataHash"`
	Username          string `json:"username,omitempty"`
	Strikes           uint64 `json:"strikes"`
}

type usernameOwnerParams struct {
	Username string `json:"username"`
}

type usernameOwnerResult struct {
	Owner      string `json:"owner,omitempty"`
	Registered bool   `json:"registered"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, req *RPCRequest) {
	var params createUserParams
	if err := parseParams(req, &params); err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, err.Error())
		return
	}
	metadataHash, err := parseHash(params.MetadataHash)
	if err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, err.Error())
		return
	}
	if err := s.engine.CreateUser(caller, params.Username, metadataHash); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "registered"})
}

func (s *Server) handleUpdateMetadata(w http.ResponseWriter, req *RPCRequest) {
	var params updateMetadataParams
	if err := parseParams(req, &params); err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, err.Error())
		return
	}
	metadataHash, err := parseHash(params.MetadataHash)
	if err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, err.Error())
		return
	}
	if err := s.engine.UpdateMetadata(caller, metadataHash); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"status": "updated"})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, req *RPCRequest) {
	var params getProfileParams
	if err := parseParams(req, &params); err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, err.Error())
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, err.Error())
		return
	}
	profile := s.engine.GetProfile(addr)
	writeResult(w, req.ID, profileResult{
		LatestInteraction: profile.LatestInteraction,
		MetadataHash:      profile.MetadataHash.Hex(),
		Username:          profile.Username,
		Strikes:           profile.Strikes,
	})
}

func (s *Server) handleUsernameOwner(w http.ResponseWriter, req *RPCRequest) {
	var params usernameOwnerParams
	if err := parseParams(req, &params); err != nil {
		writeRPCError(w, req.ID, codeInvalidParams, err.Error())
		return
	}
	owner, ok := s.engine.GetUsernameOwner(params.Username)
	result := usernameOwnerResult{Registered: ok}
	if ok {
		result.Owner = owner.Hex()
	}
	writeResult(w, req.ID, result)
}
